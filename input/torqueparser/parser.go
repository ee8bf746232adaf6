// Package torqueparser parses the two structured log-line formats written by the batch
// scheduler: server logs and accounting logs.
//
// Both formats share a fixed timestamp prefix "MM/DD/YYYY HH:MM:SS;" followed by
// semicolon-separated fields. Timestamps are second precision in the producer's local
// clock with no timezone.
//
// Parsing is pure and performs no I/O; malformed lines are reported as errors and never
// produce an event.
package torqueparser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hpcops/torque-slack-agent/base"
)

// Parse failure kinds, wrapped in the returned errors
var (
	ErrMalformedTimestamp      = errors.New("malformed timestamp prefix")
	ErrMalformedServerLine     = errors.New("malformed server log line")
	ErrMalformedAccountingLine = errors.New("malformed accounting log line")
)

const timestampWidth = len("MM/DD/YYYY HH:MM:SS")

// ParseServerLine parses one server log line into an event
//
// Body format after the timestamp: "logType;server;section;about;message" where message
// is free text and may contain further ';' characters.
//
// Ex: 02/27/2015 00:59:44;0100;PBS_Server.23657;Job;22495[].clusterhn.cluster.com;enqueuing into default, state 1 hop 1
func ParseServerLine(line string) (*base.Event, error) {
	timestamp, body, err := parseTimestamp(line)
	if err != nil {
		return nil, err
	}

	// cap at 5 so embedded ';' stays inside the message field
	parts := strings.SplitN(body, ";", 5)
	if len(parts) < 5 {
		return nil, fmt.Errorf("%w: %d of 5 fields", ErrMalformedServerLine, len(parts))
	}

	return &base.Event{
		Time:    timestamp,
		Source:  base.SourceServerLog,
		LogType: parts[0],
		Server:  parts[1],
		Section: parts[2],
		About:   parts[3],
		Message: parts[4],
	}, nil
}

// ParseAccountingLine parses one accounting log line into an event
//
// Body format after the timestamp: "state;jobId;properties" where properties is a
// space-separated list of key=value pairs; values may contain '='. An empty properties
// field yields an empty mapping.
//
// Ex: 02/26/2015 00:04:48;Q;22320.clusterhn.cluster.com;queue=default
func ParseAccountingLine(line string) (*base.Event, error) {
	timestamp, body, err := parseTimestamp(line)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(body, ";", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %d of 3 fields", ErrMalformedAccountingLine, len(parts))
	}

	properties, perr := parseProperties(strings.TrimRight(parts[2], " \r"))
	if perr != nil {
		return nil, perr
	}

	return &base.Event{
		Time:       timestamp,
		Source:     base.SourceAccountingLog,
		State:      parts[0],
		JobID:      parts[1],
		Properties: properties,
	}, nil
}

// parseProperties parses a space-separated list of key=value pairs; only the first '='
// in each pair separates key from value
func parseProperties(s string) (map[string]string, error) {
	if s == "" {
		return map[string]string{}, nil
	}

	properties := make(map[string]string, 8)
	for _, pair := range strings.Split(s, " ") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("%w: property '%s' has no '='", ErrMalformedAccountingLine, pair)
		}
		properties[key] = value
	}
	return properties, nil
}

// parseTimestamp parses the fixed "MM/DD/YYYY HH:MM:SS;" prefix and returns the
// timestamp and the rest of the line after the ';'
//
// All numeric fields must be zero-padded to their full width; anything else fails.
func parseTimestamp(line string) (time.Time, string, error) {
	if len(line) < timestampWidth+1 || line[timestampWidth] != ';' {
		return time.Time{}, "", fmt.Errorf("%w: '%s'", ErrMalformedTimestamp, truncateForError(line))
	}
	t := line[:timestampWidth]
	if t[2] != '/' || t[5] != '/' || t[10] != ' ' || t[13] != ':' || t[16] != ':' {
		return time.Time{}, "", fmt.Errorf("%w: '%s'", ErrMalformedTimestamp, t)
	}
	for _, i := range digitPositions {
		if t[i] < '0' || t[i] > '9' {
			return time.Time{}, "", fmt.Errorf("%w: '%s'", ErrMalformedTimestamp, t)
		}
	}

	month := atoi2(t[0:2])
	day := atoi2(t[3:5])
	year := atoi4(t[6:10])
	hour := atoi2(t[11:13])
	minute := atoi2(t[14:16])
	second := atoi2(t[17:19])

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, "", fmt.Errorf("%w: '%s' is out of range", ErrMalformedTimestamp, t)
	}

	timestamp := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
	// time.Date normalizes impossible dates like Feb 30 to early March; such lines must
	// be dropped, not shifted into the next month
	if timestamp.Day() != day || timestamp.Month() != time.Month(month) {
		return time.Time{}, "", fmt.Errorf("%w: '%s' is not a valid date", ErrMalformedTimestamp, t)
	}

	return timestamp, line[timestampWidth+1:], nil
}

var digitPositions = []int{0, 1, 3, 4, 6, 7, 8, 9, 11, 12, 14, 15, 17, 18}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

func atoi4(s string) int {
	return int(s[0]-'0')*1000 +
		int(s[1]-'0')*100 +
		int(s[2]-'0')*10 +
		int(s[3]-'0')
}

const maxErrorLineSize = 200 // enough to include the prefix and the start of the body

func truncateForError(line string) string {
	if len(line) > maxErrorLineSize {
		return line[:maxErrorLineSize] + "..."
	}
	return line
}
