package dirwatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relex/gotils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
)

func collectNotification(t *testing.T, listener base.DirectoryListener) base.DirectoryNotification {
	select {
	case notification, ok := <-listener.Notifications():
		require.True(t, ok, "notification channel closed unexpectedly")
		return notification
	case <-time.After(defs.TestReadTimeout):
		require.FailNow(t, "timed out waiting for notification")
		return base.DirectoryNotification{}
	}
}

func waitForChannelClose(t *testing.T, listener base.DirectoryListener) {
	deadline := time.After(defs.TestReadTimeout)
	for {
		select {
		case _, ok := <-listener.Notifications():
			if !ok {
				return
			}
		case <-deadline:
			require.FailNow(t, "timed out waiting for channel close")
		}
	}
}

func testListenerReportsChanges(t *testing.T, newListener func(directory string) (base.DirectoryListener, error)) {
	directory := t.TempDir()
	existing := filepath.Join(directory, "existing")
	require.NoError(t, os.WriteFile(existing, []byte("before\n"), 0644))

	listener, err := newListener(directory)
	require.NoError(t, err)
	listener.Launch()

	created := filepath.Join(directory, "created")
	require.NoError(t, os.WriteFile(created, []byte("first\n"), 0644))
	notification := collectNotification(t, listener)
	assert.Equal(t, created, notification.Path)
	assert.Equal(t, base.OpCreate, notification.Op)

	f, err := os.OpenFile(created, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	notification = collectNotification(t, listener)
	assert.Equal(t, created, notification.Path)
	assert.Equal(t, base.OpModify, notification.Op)

	assert.NoError(t, listener.Close())
	assert.NoError(t, listener.Close()) // idempotent
	waitForChannelClose(t, listener)
}

func TestFsnotifyListener(t *testing.T) {
	testListenerReportsChanges(t, func(directory string) (base.DirectoryListener, error) {
		return NewFsnotifyListener(logger.WithField("test", t.Name()), directory)
	})
}

func TestPollListener(t *testing.T) {
	testListenerReportsChanges(t, func(directory string) (base.DirectoryListener, error) {
		return NewPollListener(logger.WithField("test", t.Name()), directory, 20*time.Millisecond)
	})
}

func TestPollListenerRejectsMissingDirectory(t *testing.T) {
	_, err := NewPollListener(logger.WithField("test", t.Name()), filepath.Join(t.TempDir(), "no-such-dir"), time.Second)
	assert.Error(t, err)
}
