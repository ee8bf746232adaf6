// Package base defines the domain types and contracts shared between inputs, the event
// queue and the dispatcher: log events, the ordered hand-off queue and the directory
// change notification interface.
package base

import (
	"time"
)

// LogSource identifies which of the two watched log streams an event came from
type LogSource int

// Known log sources
const (
	SourceServerLog LogSource = iota
	SourceAccountingLog
)

// String returns the source name as it appears in logs and metrics labels
func (src LogSource) String() string {
	switch src {
	case SourceServerLog:
		return "server"
	case SourceAccountingLog:
		return "accounting"
	default:
		return "unknown"
	}
}

// Event is one structured log entry parsed from a single line
//
// Time is second-precision in the local clock of the log producer; log files carry no
// timezone. Events are only ever constructed by the parsers from lines that parsed
// successfully, so Time is always valid.
//
// Server-log events fill LogType, Server, Section, About and Message; accounting events
// fill JobID, State and Properties. Events are immutable after construction.
type Event struct {
	Time   time.Time
	Source LogSource

	// server log fields
	LogType string // numeric code as text, e.g. "0100"
	Server  string
	Section string
	About   string
	Message string // free text, may contain ';'

	// accounting log fields
	JobID      string
	State      string // single-letter state code, e.g. Q/S/E
	Properties map[string]string
}
