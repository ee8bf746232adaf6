// Package dirwatch implements base.DirectoryListener on top of OS-level filesystem
// notifications (fsnotify) and, as a fallback, periodic polling.
package dirwatch

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/relex/gotils/logger"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
	"github.com/hpcops/torque-slack-agent/util"
)

// fsnotifyListener watches one directory through inotify or the platform equivalent
type fsnotifyListener struct {
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	notifications chan base.DirectoryNotification
	close         func() bool
}

// NewFsnotifyListener creates a listener for the given directory using OS-level change
// notifications; fails if the watch cannot be established
func NewFsnotifyListener(parentLogger logger.Logger, directory string) (base.DirectoryListener, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", directory, err)
	}

	wlogger := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "FsnotifyListener",
		defs.LabelDirectory: directory,
	})

	listener := &fsnotifyListener{
		logger:        wlogger,
		watcher:       watcher,
		notifications: make(chan base.DirectoryNotification, defs.WatchNotificationBufferSize),
	}
	listener.close = util.NewRunOnce(func() {
		if cerr := watcher.Close(); cerr != nil {
			wlogger.Warnf("error closing watcher: %s", cerr.Error())
		}
	})
	return listener, nil
}

func (listener *fsnotifyListener) Launch() {
	go listener.run()
}

func (listener *fsnotifyListener) Notifications() <-chan base.DirectoryNotification {
	return listener.notifications
}

func (listener *fsnotifyListener) Close() error {
	listener.close()
	return nil
}

func (listener *fsnotifyListener) run() {
	defer close(listener.notifications)

	events := listener.watcher.Events
	errors := listener.watcher.Errors
	for events != nil || errors != nil {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch {
			case event.Op&fsnotify.Create != 0:
				listener.notifications <- base.DirectoryNotification{Path: event.Name, Op: base.OpCreate}
			case event.Op&fsnotify.Write != 0:
				listener.notifications <- base.DirectoryNotification{Path: event.Name, Op: base.OpModify}
			}
			// remove/rename/chmod are irrelevant to append-only logs

		case err, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			listener.logger.Warnf("watch error: %s", err.Error())
		}
	}
	listener.logger.Info("watch closed")
}
