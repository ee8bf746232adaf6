package run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/hpcops/torque-slack-agent/defs"
	"github.com/hpcops/torque-slack-agent/output/dispatch"
	"github.com/hpcops/torque-slack-agent/util"
)

// Config defines the root of the agent config file
type Config struct {
	TorqueHome       string            `yaml:"torqueHome"`       // scheduler spool dir; empty means $TORQUE_HOME or the built-in default
	ServerLogDir     string            `yaml:"serverLogDir"`     // override for <torqueHome>/server_logs
	AccountingLogDir string            `yaml:"accountingLogDir"` // override for <torqueHome>/server_priv/accounting
	IgnoreFiles      []string          `yaml:"ignoreFiles"`      // glob patterns of file names to skip in watched directories
	ReplayFileCount  int               `yaml:"replayFileCount"`  // newest files to replay per directory
	MaxLineSize      datasize.ByteSize `yaml:"maxLineSize"`      // cap on one unterminated line
	Watch            WatchConfig       `yaml:"watch"`
	Webhook          WebhookConfig     `yaml:"webhook"`
}

// WatchConfig selects the directory change notification mechanism
type WatchConfig struct {
	Mode         string        `yaml:"mode"`         // "fsnotify" (default) or "poll"
	PollInterval time.Duration `yaml:"pollInterval"` // poll mode only
}

// WebhookConfig defines the notification sink
type WebhookConfig struct {
	URL             string        `yaml:"url"`
	Channel         string        `yaml:"channel"`
	Username        string        `yaml:"username"`
	MinPostDelay    time.Duration `yaml:"minPostDelay"`
	OnFailure       string        `yaml:"onFailure"` // "continue" (default) or "abort"
	FailureCooldown time.Duration `yaml:"failureCooldown"`
}

// Watch modes
const (
	WatchModeFsnotify = "fsnotify"
	WatchModePoll     = "poll"
)

// ParseConfigFile loads config from the path, fills defaults and verifies it
func ParseConfigFile(path string) (Config, error) {
	config := Config{}
	if err := util.UnmarshalYamlFile(path, &config); err != nil {
		return config, err
	}
	if err := config.fillDefaultsAndVerify(); err != nil {
		return config, err
	}
	return config, nil
}

// ParseConfigString loads config from a YAML string, for tests
func ParseConfigString(contents string) (Config, error) {
	config := Config{}
	if err := util.UnmarshalYamlString(contents, &config); err != nil {
		return config, err
	}
	if err := config.fillDefaultsAndVerify(); err != nil {
		return config, err
	}
	return config, nil
}

func (config *Config) fillDefaultsAndVerify() error {
	if config.TorqueHome == "" {
		if home := os.Getenv("TORQUE_HOME"); home != "" {
			config.TorqueHome = home
		} else {
			config.TorqueHome = defs.DefaultTorqueHome
		}
	}
	if config.ServerLogDir == "" {
		config.ServerLogDir = filepath.Join(config.TorqueHome, "server_logs")
	}
	if config.AccountingLogDir == "" {
		config.AccountingLogDir = filepath.Join(config.TorqueHome, "server_priv", "accounting")
	}

	if config.ReplayFileCount < 0 {
		return fmt.Errorf(".replayFileCount must not be negative: %d", config.ReplayFileCount)
	}
	if config.ReplayFileCount == 0 {
		config.ReplayFileCount = defs.DefaultReplayFileCount
	}

	if config.Watch.Mode == "" {
		config.Watch.Mode = WatchModeFsnotify
	}
	if util.IndexOfString([]string{WatchModeFsnotify, WatchModePoll}, config.Watch.Mode) == -1 {
		return fmt.Errorf(".watch.mode: unsupported '%s'", config.Watch.Mode)
	}
	if config.Watch.PollInterval == 0 {
		config.Watch.PollInterval = defs.WatchPollInterval
	}

	if config.Webhook.URL == "" {
		return fmt.Errorf(".webhook.url is unspecified")
	}
	if config.Webhook.MinPostDelay == 0 {
		config.Webhook.MinPostDelay = defs.DefaultMinPostDelay
	}
	if config.Webhook.OnFailure == "" {
		config.Webhook.OnFailure = string(dispatch.FailureContinue)
	}
	if util.IndexOfString([]string{string(dispatch.FailureContinue), string(dispatch.FailureAbort)}, config.Webhook.OnFailure) == -1 {
		return fmt.Errorf(".webhook.onFailure: unsupported '%s'", config.Webhook.OnFailure)
	}
	if config.Webhook.FailureCooldown == 0 {
		config.Webhook.FailureCooldown = defs.DispatchFailureCooldown
	}

	return nil
}
