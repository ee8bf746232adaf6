package run

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
	"github.com/hpcops/torque-slack-agent/output/slack"
)

// Covers the full path: replay of both directories merged in time order, live tailing
// through the polling listener, and delivery to the webhook in queue order.
func TestLoaderEndToEnd(t *testing.T) {
	serverLogDir := t.TempDir()
	accountingLogDir := t.TempDir()
	baseTime := time.Date(2015, 2, 26, 12, 0, 0, 0, time.Local)

	serverLogPath := filepath.Join(serverLogDir, "20150226")
	require.NoError(t, os.WriteFile(serverLogPath, []byte(
		"02/26/2015 09:00:00;0100;srv;Job;job1;enqueuing\n"+
			"02/26/2015 09:00:10;0100;srv;Job;job1;dequeuing\n"), 0644))
	require.NoError(t, os.Chtimes(serverLogPath, baseTime, baseTime))

	accountingLogPath := filepath.Join(accountingLogDir, "20150226")
	require.NoError(t, os.WriteFile(accountingLogPath, []byte(
		"02/26/2015 09:00:05;Q;job1;queue=default\n"), 0644))
	require.NoError(t, os.Chtimes(accountingLogPath, baseTime, baseTime))

	received := make(chan string, 16)
	webhookServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var message slack.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&message))
		if assert.Len(t, message.Attachments, 1) {
			received <- message.Attachments[0].Title
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer webhookServer.Close()

	config := Config{
		ServerLogDir:     serverLogDir,
		AccountingLogDir: accountingLogDir,
		Watch: WatchConfig{
			Mode:         WatchModePoll,
			PollInterval: 20 * time.Millisecond,
		},
		Webhook: WebhookConfig{
			URL:          webhookServer.URL,
			Username:     "torque",
			MinPostDelay: time.Millisecond,
		},
		TorqueHome: "/nonexistent",
	}
	require.NoError(t, config.fillDefaultsAndVerify())

	loader, err := NewLoader(config, "it_")
	require.NoError(t, err)

	stopRequest := channels.NewSignalAwaitable()
	testLogger := logger.WithField("test", t.Name())

	handoffs, err := loader.ReplayIntoQueue(testLogger)
	require.NoError(t, err)
	assert.Equal(t, int64(3), loader.Queue.Depth())
	assert.Equal(t, serverLogPath, handoffs[base.SourceServerLog].Path)
	assert.Equal(t, accountingLogPath, handoffs[base.SourceAccountingLog].Path)

	tailers, err := loader.LaunchTailers(testLogger, handoffs, stopRequest)
	require.NoError(t, err)
	dispatcher := loader.LaunchDispatcher(testLogger, stopRequest)

	// replayed events arrive merged across directories by timestamp
	assert.Equal(t, "Job: job1", waitForTitle(t, received))
	assert.Equal(t, "Job job1 queued", waitForTitle(t, received))
	assert.Equal(t, "Job: job1", waitForTitle(t, received))

	// a line appended after startup flows through the live tailer
	f, err := os.OpenFile(accountingLogPath, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("02/26/2015 12:30:00;E;job1;Exit_status=0\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, "Job job1 ended", waitForTitle(t, received))

	stopRequest.Signal()
	for _, tailer := range tailers {
		assert.True(t, tailer.Stopped().Wait(defs.TestReadTimeout))
		assert.NoError(t, tailer.Err())
	}
	dispatcher.Stop()
	assert.True(t, dispatcher.Stopped().Wait(defs.TestReadTimeout))
	assert.NoError(t, dispatcher.Err())
}

func waitForTitle(t *testing.T, received chan string) string {
	select {
	case title := <-received:
		return title
	case <-time.After(defs.TestReadTimeout):
		require.FailNow(t, "timed out waiting for webhook delivery")
		return ""
	}
}
