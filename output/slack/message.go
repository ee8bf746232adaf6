// Package slack implements the notification sink boundary: the incoming-webhook
// message document model, the event formatter and the HTTP client that delivers one
// message at a time.
package slack

import (
	"strings"
)

// Predefined attachment colors
const (
	ColorGood    = "good"
	ColorWarning = "warning"
	ColorDanger  = "danger"
)

// Message is one incoming-webhook document
//
// Text fields must already be markup-escaped with EscapeMarkup; the webhook treats
// them as Slack markup, not plain text.
type Message struct {
	Text        string       `json:"text,omitempty"`
	Username    string       `json:"username,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is one richly formatted block inside a Message
type Attachment struct {
	Fallback   string `json:"fallback"`
	Color      string `json:"color,omitempty"`
	Pretext    string `json:"pretext,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
	AuthorLink string `json:"author_link,omitempty"`
	AuthorIcon string `json:"author_icon,omitempty"`
	Title      string `json:"title,omitempty"`
	TitleLink  string `json:"title_link,omitempty"`
	Text       string `json:"text,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeMarkup escapes the characters with special meaning in webhook message markup
func EscapeMarkup(s string) string {
	return markupEscaper.Replace(s)
}
