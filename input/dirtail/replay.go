package dirtail

import (
	"bytes"
	"fmt"
	"os"

	"github.com/relex/gotils/logger"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
	"github.com/hpcops/torque-slack-agent/input/torqueparser"
	"github.com/hpcops/torque-slack-agent/util"
)

// Handoff marks where replay of a directory finished: the newest file and the offset
// just past its last complete line.
//
// The live tailer opens this file at this offset before watching resumes, so no line is
// lost or read twice across the replay-to-live transition. The zero value means the
// directory had no replayable file.
type Handoff struct {
	Path   string
	Offset int64
}

// ReplayDirectory reads the most recently modified files of a directory in full and
// returns their parsed events in file order, which is chronological for rotated logs.
//
// Only the newest fileCount files are read, bounding startup cost. Parse failures are
// logged and skipped by the parser, never aborting the replay; only a failure to list
// the directory is returned as an error, since the tailer cannot start without it.
func ReplayDirectory(parentLogger logger.Logger, directory string, parser *torqueparser.LineParser,
	fileCount int, keepFile func(name string) bool) ([]*base.Event, Handoff, error) {

	rlogger := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "Replay",
		defs.LabelDirectory: directory,
	})

	files, err := util.ListFilesByModTime(directory, keepFile)
	if err != nil {
		return nil, Handoff{}, fmt.Errorf("failed to list %s: %w", directory, err)
	}
	if len(files) > fileCount {
		files = files[len(files)-fileCount:]
	}
	if len(files) == 0 {
		rlogger.Info("nothing to replay")
		return nil, Handoff{}, nil
	}

	events := make([]*base.Event, 0, 1024)
	handoff := Handoff{}
	for i, file := range files {
		newest := i == len(files)-1

		data, rerr := os.ReadFile(file.Path)
		if rerr != nil {
			rlogger.Warnf("skipping unreadable file: %s", rerr.Error())
			continue
		}

		// only complete lines count as replayed in the newest file; an unterminated
		// trailing fragment is left for the live tailer to finish
		consumed := int64(len(data))
		if newest {
			last := bytes.LastIndexByte(data, '\n')
			consumed = int64(last + 1)
			data = data[:last+1]
		}

		for _, line := range splitLines(data) {
			if event := parser.Parse(line); event != nil {
				events = append(events, event)
			}
		}

		if newest {
			handoff = Handoff{Path: file.Path, Offset: consumed}
		}
	}

	rlogger.Infof("replayed %d events from %d files", len(events), len(files))
	return events, handoff, nil
}

// splitLines splits file contents on '\n', dropping the empty tail after a final
// terminator but keeping an unterminated trailing fragment as a line
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := make([]string, 0, 64)
	for len(data) > 0 {
		end := bytes.IndexByte(data, '\n')
		if end == -1 {
			lines = append(lines, string(data))
			break
		}
		lines = append(lines, string(data[:end]))
		data = data[end+1:]
	}
	return lines
}
