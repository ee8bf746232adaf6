package slack

import (
	"time"

	"github.com/hpcops/torque-slack-agent/base"
)

// EventSink formats events and delivers them through a WebhookClient, implementing the
// dispatcher's sink contract
type EventSink struct {
	formatter *MessageFormatter
	client    *WebhookClient
}

// NewEventSink creates an EventSink
func NewEventSink(formatter *MessageFormatter, client *WebhookClient) *EventSink {
	return &EventSink{
		formatter: formatter,
		client:    client,
	}
}

// Deliver formats and posts one event
func (sink *EventSink) Deliver(event *base.Event) (time.Duration, error) {
	return sink.client.Post(sink.formatter.Format(event))
}
