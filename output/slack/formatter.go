package slack

import (
	"fmt"
	"strings"

	"github.com/hpcops/torque-slack-agent/base"
)

// accountingStates maps single-letter accounting record markers to readable verbs
var accountingStates = map[string]string{
	"Q": "queued",
	"S": "started",
	"E": "ended",
	"D": "deleted",
	"A": "aborted",
	"R": "requeued",
	"T": "restarted",
	"C": "checkpointed",
}

// accountingColors picks attachment colors for the states worth highlighting
var accountingColors = map[string]string{
	"S": ColorGood,
	"E": ColorWarning,
	"D": ColorDanger,
	"A": ColorDanger,
}

const timeFormat = "2006-01-02 15:04:05"

// MessageFormatter renders events into webhook messages with a fixed sender identity
type MessageFormatter struct {
	username string
	channel  string
}

// NewMessageFormatter creates a MessageFormatter; username and channel may be empty to
// use the webhook's defaults
func NewMessageFormatter(username string, channel string) *MessageFormatter {
	return &MessageFormatter{
		username: username,
		channel:  channel,
	}
}

// Format renders one event into a webhook message
func (formatter *MessageFormatter) Format(event *base.Event) *Message {
	var attachment Attachment
	switch event.Source {
	case base.SourceAccountingLog:
		attachment = formatAccounting(event)
	default:
		attachment = formatServerLog(event)
	}

	return &Message{
		Username:    formatter.username,
		Channel:     formatter.channel,
		Attachments: []Attachment{attachment},
	}
}

func formatAccounting(event *base.Event) Attachment {
	verb, known := accountingStates[event.State]
	if !known {
		verb = fmt.Sprintf("in state %s", event.State)
	}

	title := fmt.Sprintf("Job %s %s", event.JobID, verb)
	details := make([]string, 0, 4)
	for _, key := range []string{"queue", "user", "Exit_status"} {
		if value, ok := event.Properties[key]; ok {
			details = append(details, fmt.Sprintf("%s=%s", key, value))
		}
	}

	return Attachment{
		Fallback: fmt.Sprintf("%s %s", event.Time.Format(timeFormat), title),
		Color:    accountingColors[event.State],
		Title:    EscapeMarkup(title),
		Text:     EscapeMarkup(strings.Join(details, " ")),
	}
}

func formatServerLog(event *base.Event) Attachment {
	title := fmt.Sprintf("%s: %s", event.Section, event.About)

	return Attachment{
		Fallback:   fmt.Sprintf("%s %s: %s", event.Time.Format(timeFormat), title, event.Message),
		AuthorName: event.Server,
		Title:      EscapeMarkup(title),
		Text:       EscapeMarkup(event.Message),
	}
}
