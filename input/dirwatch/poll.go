package dirwatch

import (
	"fmt"
	"os"
	"time"

	"github.com/relex/gotils/logger"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
	"github.com/hpcops/torque-slack-agent/util"
)

// pollListener re-stats the directory on a fixed interval, for filesystems without
// native change notifications (network mounts)
type pollListener struct {
	logger        logger.Logger
	directory     string
	interval      time.Duration
	known         map[string]pollState
	notifications chan base.DirectoryNotification
	stopChan      chan struct{}
	close         func() bool
}

type pollState struct {
	size    int64
	modTime time.Time
}

// NewPollListener creates a polling listener for the given directory
//
// The first scan establishes the baseline; only changes after Launch are reported,
// matching the notification-based listener's behavior.
func NewPollListener(parentLogger logger.Logger, directory string, interval time.Duration) (base.DirectoryListener, error) {
	if stat, err := os.Stat(directory); err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", directory, err)
	} else if !stat.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", directory)
	}
	if interval <= 0 {
		interval = defs.WatchPollInterval
	}

	listener := &pollListener{
		logger: parentLogger.WithFields(logger.Fields{
			defs.LabelComponent: "PollListener",
			defs.LabelDirectory: directory,
		}),
		directory:     directory,
		interval:      interval,
		known:         make(map[string]pollState, 32),
		notifications: make(chan base.DirectoryNotification, defs.WatchNotificationBufferSize),
		stopChan:      make(chan struct{}),
	}
	listener.close = util.NewRunOnce(func() {
		close(listener.stopChan)
	})

	if err := listener.scan(false); err != nil {
		return nil, err
	}
	return listener, nil
}

func (listener *pollListener) Launch() {
	go listener.run()
}

func (listener *pollListener) Notifications() <-chan base.DirectoryNotification {
	return listener.notifications
}

func (listener *pollListener) Close() error {
	listener.close()
	return nil
}

func (listener *pollListener) run() {
	defer close(listener.notifications)

	ticker := time.NewTicker(listener.interval)
	defer ticker.Stop()

	for {
		select {
		case <-listener.stopChan:
			listener.logger.Info("watch closed")
			return
		case <-ticker.C:
			if err := listener.scan(true); err != nil {
				listener.logger.Warnf("scan error: %s", err.Error())
			}
		}
	}
}

// scan stats the directory and emits notifications for new and grown files
func (listener *pollListener) scan(emit bool) error {
	files, err := util.ListFilesByModTime(listener.directory, nil)
	if err != nil {
		return err
	}

	for _, file := range files {
		previous, seen := listener.known[file.Path]
		listener.known[file.Path] = pollState{size: file.Size, modTime: file.ModTime}

		if !emit {
			continue
		}
		switch {
		case !seen:
			listener.notifications <- base.DirectoryNotification{Path: file.Path, Op: base.OpCreate}
		case file.Size != previous.size || file.ModTime != previous.modTime:
			listener.notifications <- base.DirectoryNotification{Path: file.Path, Op: base.OpModify}
		}
	}
	return nil
}
