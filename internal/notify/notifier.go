package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// notifyTimeout is the max time allowed for a single async delivery.
const notifyTimeout = 5 * time.Second

// Notification kinds.
const (
	KindClockedIn  = "clocked_in"
	KindClockedOut = "clocked_out"
)

// Message is one session boundary notification.
type Message struct {
	Kind      string `json:"kind"` // clocked_in, clocked_out
	SiteID    string `json:"site_id"`
	SiteName  string `json:"site_name"`
	SessionID string `json:"session_id"`

	// At is the session boundary time (Unix milliseconds).
	At int64 `json:"at"`

	// DurationMinutes is set on clocked_out messages.
	DurationMinutes *int64 `json:"duration_minutes,omitempty"`

	// ExitByDefault is set on clocked_out messages closed without a
	// confirmed out-of-range position.
	ExitByDefault bool `json:"exit_by_default,omitempty"`
}

// Notifier delivers session boundary notifications. Delivery is
// best-effort; implementations must never block the caller on a slow or
// failing sink.
type Notifier interface {
	Notify(msg Message)
}

// LogNotifier writes notifications to the process log. It is the default
// sink when no webhook is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(msg Message) {
	if msg.DurationMinutes != nil {
		log.Printf("[Notify] %s site=%s session=%s duration=%dmin", msg.Kind, msg.SiteID, msg.SessionID, *msg.DurationMinutes)
		return
	}
	log.Printf("[Notify] %s site=%s session=%s", msg.Kind, msg.SiteID, msg.SessionID)
}

// WebhookNotifier POSTs each notification as JSON to a configured URL.
// Deliveries run in a goroutine with a short timeout so the engine is
// never blocked; failures are logged and dropped.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier for the given URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: notifyTimeout},
	}
}

func (n *WebhookNotifier) Notify(msg Message) {
	go func() {
		body, err := json.Marshal(msg)
		if err != nil {
			log.Printf("[Notify] failed to encode %s notification: %v", msg.Kind, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			log.Printf("[Notify] failed to build webhook request: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			log.Printf("[Notify] webhook delivery failed: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.Printf("[Notify] webhook returned status %d for %s", resp.StatusCode, msg.Kind)
		}
	}()
}

// Multi fans one notification out to several sinks.
type Multi []Notifier

func (m Multi) Notify(msg Message) {
	for _, n := range m {
		n.Notify(msg)
	}
}
