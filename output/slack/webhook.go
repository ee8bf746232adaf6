package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/relex/gotils/logger"

	"github.com/hpcops/torque-slack-agent/defs"
)

// WebhookClient posts messages to an incoming-webhook endpoint one at a time
//
// Post distinguishes three outcomes: success, a rate-limit signal carrying a
// retry-after duration (HTTP 429, not an error), and a generic delivery failure.
type WebhookClient struct {
	logger     logger.Logger
	endpoint   string
	httpClient *http.Client
}

// NewWebhookClient creates a WebhookClient for the given endpoint URL
func NewWebhookClient(parentLogger logger.Logger, endpoint string) *WebhookClient {
	return &WebhookClient{
		logger:   parentLogger.WithField(defs.LabelComponent, "WebhookClient"),
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: defs.WebhookRequestTimeout,
		},
	}
}

// Post delivers one message
//
// Returns (0, nil) on success, (retryAfter, nil) when the sink rate-limits the caller,
// and (0, error) on any other failure. A rate-limited message counts as delivered; the
// policy is to wait, not to resubmit.
func (client *WebhookClient) Post(message *Message) (time.Duration, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("failed to encode message: %w", err)
	}

	request, err := http.NewRequest(http.MethodPost, client.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return 0, fmt.Errorf("failed to post message: %w", err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		return 0, nil
	case response.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(response.Header.Get("Retry-After"))
		client.logger.Infof("rate limited, retry-after %s", retryAfter)
		return retryAfter, nil
	default:
		return 0, fmt.Errorf("sink returned %s", response.Status)
	}
}

// parseRetryAfter reads a Retry-After header in seconds; absent or malformed values
// yield zero so the minimum post delay alone applies
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
