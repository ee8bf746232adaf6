package defs

import (
	"time"
)

var (
	// InputLogMaxLineBytes defines the maximum length of a single log line before its terminator arrives
	//
	// A pending fragment growing beyond the limit is discarded and counted, so a corrupt file
	// without newlines cannot grow the tail buffer without bound. May be overridden from config.
	InputLogMaxLineBytes = 1 * 1024 * 1024

	// TailReadBufferSize defines the buffer size in bytes for one read from an active log file
	TailReadBufferSize = 64 * 1024

	// WatchNotificationBufferSize defines the channel buffer between a directory listener and its tailer
	//
	// The tailer never blocks for long (queue pushes are non-blocking), so a small buffer only
	// absorbs notification bursts during rotation.
	WatchNotificationBufferSize = 256

	// WatchPollInterval defines how often the polling listener re-stats the watched directory
	// when OS-level notifications are not available
	WatchPollInterval = 2 * time.Second

	// WebhookRequestTimeout is the timeout for one POST to the notification sink
	WebhookRequestTimeout = 30 * time.Second

	// DispatchFailureCooldown is how long to pause dispatching after a generic delivery failure
	// under the log-and-continue policy
	DispatchFailureCooldown = 120 * time.Second
)

const (
	// DefaultTorqueHome is the scheduler spool directory used when neither config nor
	// the TORQUE_HOME environment variable specifies one
	DefaultTorqueHome = "/var/spool/torque"

	// DefaultReplayFileCount is how many of the most recently modified files per directory
	// are replayed before live tailing starts
	DefaultReplayFileCount = 7

	// DefaultMinPostDelay is the minimum wait between two deliveries to the sink
	DefaultMinPostDelay = 6 * time.Second
)

// For testing and experiments
const (
	TestReadTimeout = 5 * time.Second
)

// EnableTestMode turns on test mode with very short timeouts and delays
func EnableTestMode() {
	WatchPollInterval = 50 * time.Millisecond
	WebhookRequestTimeout = 1 * time.Second
	DispatchFailureCooldown = 100 * time.Millisecond
}
