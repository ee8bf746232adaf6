package dirtail

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
	"github.com/hpcops/torque-slack-agent/input/torqueparser"
	"github.com/hpcops/torque-slack-agent/util"
)

// ErrUnexpectedConcurrentWrite reports a modification to a file other than the active
// one while an active file exists.
//
// The model assumes one active writer per directory; two files written concurrently is a
// structural violation with no recovery.
var ErrUnexpectedConcurrentWrite = errors.New("unexpected concurrent write")

// TailerArgs bundles the collaborators of a Tailer
type TailerArgs struct {
	Directory string                  // watched directory, for logging
	Listener  base.DirectoryListener  // change notification source, closed by the tailer on stop
	Parser    *torqueparser.LineParser
	Queue     *base.EventQueue
	Handoff   Handoff // active file and offset replay finished at; zero value when nothing was replayed
	KeepFile  func(name string) bool
}

// Tailer follows the active file of one rotating log directory and pushes parsed events
// onto the event queue.
//
// It runs as a single goroutine driven by directory change notifications: a created
// file becomes the new active file (rotation), modifications to the active file are
// read incrementally through a TailBuffer, and a modification to any other file while
// one is active stops the tailer fatally.
type Tailer struct {
	logger        logger.Logger
	args          TailerArgs
	buffer        *TailBuffer
	activeFile    *os.File
	activePath    string
	readBuffer    []byte
	stopRequest   channels.Awaitable
	stopped       *channels.SignalAwaitable
	abort         *channels.SignalAwaitable
	err           error
	rotationCount promext.RWCounter
	lineCount     promext.RWCounter
}

// NewTailer creates a Tailer; no goroutine is started until Launch
func NewTailer(parentLogger logger.Logger, args TailerArgs, metricCreator promreg.MetricCreator,
	stopRequest channels.Awaitable) *Tailer {

	tlogger := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "Tailer",
		defs.LabelDirectory: args.Directory,
	})
	tailMetricCreator := metricCreator.AddOrGetPrefix("tail_", []string{defs.LabelDirectory}, []string{filepath.Base(args.Directory)})

	discardCounter := tailMetricCreator.AddOrGetCounter("discarded_fragment_bytes_total",
		"Total bytes of oversized line fragments discarded", nil, nil)

	return &Tailer{
		logger: tlogger,
		args:   args,
		buffer: NewTailBuffer(defs.InputLogMaxLineBytes, func(droppedBytes int) {
			tlogger.Warnf("discarding oversized line fragment: %d bytes", droppedBytes)
			discardCounter.Add(uint64(droppedBytes))
		}),
		readBuffer:  make([]byte, defs.TailReadBufferSize),
		stopRequest: stopRequest,
		stopped:     channels.NewSignalAwaitable(),
		abort:       channels.NewSignalAwaitable(),
		rotationCount: tailMetricCreator.AddOrGetCounter("rotations_total",
			"Numbers of file rotations observed", nil, nil),
		lineCount: tailMetricCreator.AddOrGetCounter("lines_total",
			"Numbers of complete lines read from the active file", nil, nil),
	}
}

// Launch starts the tailing loop in background
func (tailer *Tailer) Launch() {
	go tailer.run()
}

// Stopped returns an Awaitable signaled when the tailer has fully stopped
func (tailer *Tailer) Stopped() channels.Awaitable {
	return tailer.stopped
}

// Err returns the fatal error that stopped the tailer, if any; valid after Stopped
func (tailer *Tailer) Err() error {
	return tailer.err
}

func (tailer *Tailer) run() {
	defer tailer.stopped.Signal()

	// close the listener when stop is requested or the loop aborts, which closes the
	// notification channel and ends the loop below
	closeListener := util.NewRunOnce(func() {
		if err := tailer.args.Listener.Close(); err != nil {
			tailer.logger.Warnf("error closing directory listener: %s", err.Error())
		}
	})
	go func() {
		channels.AnyAwaitables(tailer.stopRequest, tailer.abort).Next(func() {
			if tailer.abort.Peek() {
				tailer.logger.Info("abort tailing")
			} else {
				tailer.logger.Info("close listener on stop request")
			}
		}).WaitForever()
		closeListener()
	}()

	if tailer.args.Handoff.Path != "" {
		if err := tailer.adoptReplayedFile(tailer.args.Handoff); err != nil {
			tailer.logger.Errorf("failed to resume from replayed file: %s", err.Error())
			tailer.err = err
			tailer.abort.Signal()
		}
	}

	tailer.logger.Info("started")
	for notification := range tailer.args.Listener.Notifications() {
		if err := tailer.handleNotification(notification); err != nil {
			tailer.logger.Errorf("fatal: %s", err.Error())
			tailer.err = err
			tailer.abort.Signal()
			break
		}
	}

	// drain remaining notifications so the listener is never blocked on send
	for range tailer.args.Listener.Notifications() {
	}

	tailer.closeActive()
	tailer.logger.Info("stopped")
}

func (tailer *Tailer) handleNotification(notification base.DirectoryNotification) error {
	if !tailer.args.KeepFile(filepath.Base(notification.Path)) {
		return nil
	}

	switch notification.Op {
	case base.OpCreate:
		return tailer.handleCreate(notification.Path)
	case base.OpModify:
		return tailer.handleModify(notification.Path)
	default:
		return nil
	}
}

// handleCreate switches the active file to the newly created one, reading it from the
// start; any unflushed fragment of the previous file is discarded
func (tailer *Tailer) handleCreate(path string) error {
	if path == tailer.activePath && tailer.activeFile != nil {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open created file %s: %w", path, err)
	}

	if tailer.activeFile != nil {
		tailer.logger.Infof("rotating from %s to %s", tailer.activePath, path)
		tailer.rotationCount.Inc()
		tailer.closeActive()
		tailer.buffer.Reset()
	} else {
		tailer.logger.Infof("watching new file %s", path)
	}

	tailer.activeFile = file
	tailer.activePath = path
	return tailer.readActive()
}

// handleModify reads newly appended bytes of the active file; the first modified file
// observed becomes active when none is assigned yet
func (tailer *Tailer) handleModify(path string) error {
	if tailer.activeFile == nil {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open modified file %s: %w", path, err)
		}
		tailer.logger.Infof("watching existing file %s", path)
		tailer.activeFile = file
		tailer.activePath = path
	} else if path != tailer.activePath {
		return fmt.Errorf("%w: modifications to %s while %s is active",
			ErrUnexpectedConcurrentWrite, path, tailer.activePath)
	}

	return tailer.readActive()
}

// adoptReplayedFile opens the last replayed file at the exact offset replay finished
// at, so live tailing continues with no gap and no duplication
func (tailer *Tailer) adoptReplayedFile(handoff Handoff) error {
	file, err := os.Open(handoff.Path)
	if err != nil {
		return fmt.Errorf("failed to open replayed file %s: %w", handoff.Path, err)
	}
	if _, err := file.Seek(handoff.Offset, io.SeekStart); err != nil {
		file.Close()
		return fmt.Errorf("failed to seek replayed file %s to %d: %w", handoff.Path, handoff.Offset, err)
	}

	tailer.logger.Infof("resuming %s at offset %d", handoff.Path, handoff.Offset)
	tailer.activeFile = file
	tailer.activePath = handoff.Path
	return tailer.readActive()
}

// readActive reads everything appended since the last read and pushes parsed events
func (tailer *Tailer) readActive() error {
	for {
		n, err := tailer.activeFile.Read(tailer.readBuffer)
		if n > 0 {
			for _, line := range tailer.buffer.Feed(tailer.readBuffer[:n]) {
				tailer.lineCount.Inc()
				if event := tailer.args.Parser.Parse(line); event != nil {
					tailer.args.Queue.Push(event)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read %s: %w", tailer.activePath, err)
		}
	}
}

func (tailer *Tailer) closeActive() {
	if tailer.activeFile != nil {
		if err := tailer.activeFile.Close(); err != nil {
			tailer.logger.Warnf("error closing %s: %s", tailer.activePath, err.Error())
		}
		tailer.activeFile = nil
	}
}
