package run

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hpcops/torque-slack-agent/defs"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Setenv("TORQUE_HOME", "")
	config, err := ParseConfigString(`
webhook:
  url: https://hooks.example.com/services/T0/B0/XXX
`)
	assert.NoError(t, err)
	assert.Equal(t, defs.DefaultTorqueHome, config.TorqueHome)
	assert.Equal(t, filepath.Join(defs.DefaultTorqueHome, "server_logs"), config.ServerLogDir)
	assert.Equal(t, filepath.Join(defs.DefaultTorqueHome, "server_priv", "accounting"), config.AccountingLogDir)
	assert.Equal(t, defs.DefaultReplayFileCount, config.ReplayFileCount)
	assert.Equal(t, WatchModeFsnotify, config.Watch.Mode)
	assert.Equal(t, defs.DefaultMinPostDelay, config.Webhook.MinPostDelay)
	assert.Equal(t, "continue", config.Webhook.OnFailure)
	assert.Equal(t, defs.DispatchFailureCooldown, config.Webhook.FailureCooldown)
}

func TestParseConfigFull(t *testing.T) {
	config, err := ParseConfigString(`
torqueHome: /opt/torque
serverLogDir: /opt/torque/logs
ignoreFiles:
  - "*.lock"
replayFileCount: 3
maxLineSize: 65536
watch:
  mode: poll
  pollInterval: 500ms
webhook:
  url: https://hooks.example.com/services/T0/B0/XXX
  channel: "#hpc"
  username: torque
  minPostDelay: 10s
  onFailure: abort
  failureCooldown: 1m
`)
	assert.NoError(t, err)
	assert.Equal(t, "/opt/torque", config.TorqueHome)
	assert.Equal(t, "/opt/torque/logs", config.ServerLogDir)
	assert.Equal(t, filepath.Join("/opt/torque", "server_priv", "accounting"), config.AccountingLogDir)
	assert.Equal(t, []string{"*.lock"}, config.IgnoreFiles)
	assert.Equal(t, 3, config.ReplayFileCount)
	assert.Equal(t, uint64(65536), config.MaxLineSize.Bytes())
	assert.Equal(t, WatchModePoll, config.Watch.Mode)
	assert.Equal(t, 500*time.Millisecond, config.Watch.PollInterval)
	assert.Equal(t, "#hpc", config.Webhook.Channel)
	assert.Equal(t, 10*time.Second, config.Webhook.MinPostDelay)
	assert.Equal(t, "abort", config.Webhook.OnFailure)
	assert.Equal(t, time.Minute, config.Webhook.FailureCooldown)
}

func TestParseConfigTorqueHomeEnv(t *testing.T) {
	t.Setenv("TORQUE_HOME", "/srv/torque")
	config, err := ParseConfigString(`
webhook:
  url: https://hooks.example.com/services/T0/B0/XXX
`)
	assert.NoError(t, err)
	assert.Equal(t, "/srv/torque", config.TorqueHome)
	assert.Equal(t, filepath.Join("/srv/torque", "server_logs"), config.ServerLogDir)
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfigString(`
webhook:
  url: https://hooks.example.com/services/T0/B0/XXX
unknownKey: true
`)
	assert.Error(t, err)
}

func TestParseConfigVerification(t *testing.T) {
	for name, contents := range map[string]string{
		"missing webhook url": `
watch:
  mode: poll
`,
		"bad watch mode": `
watch:
  mode: kqueue
webhook:
  url: https://hooks.example.com/services/T0/B0/XXX
`,
		"bad failure policy": `
webhook:
  url: https://hooks.example.com/services/T0/B0/XXX
  onFailure: retry
`,
		"negative replay count": `
replayFileCount: -1
webhook:
  url: https://hooks.example.com/services/T0/B0/XXX
`,
	} {
		_, err := ParseConfigString(contents)
		assert.Error(t, err, name)
	}
}
