package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"contentsbuilder/internal/config"
)

const userAgent = "ContentsBuilder-Go/0.1.0"

// Event identifies a notification kind.
type Event string

const (
	EventPromoted       Event = "promoted"
	EventFlagged        Event = "flagged"
	EventCycleCompleted Event = "cycle_completed"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries the values an event message is built from.
type Payload map[string]any

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Payload) number(key string) int {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Service publishes pipeline events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventPromoted:       cfg.Notifications.Promoted,
			EventFlagged:        cfg.Notifications.Flagged,
			EventCycleCompleted: cfg.Notifications.Cycle,
			EventError:          true,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventPromoted:
		return message{
			title: "ContentsBuilder - Promoted",
			body:  fmt.Sprintf("Promoted (score %d): %s\n%s", payload.number("score"), payload.text("title"), payload.text("url")),
			tags:  []string{"contentsbuilder", "topic", "promoted"},
		}, true
	case EventFlagged:
		return message{
			title:    "ContentsBuilder - Review Needed",
			body:     fmt.Sprintf("Misinformation risk %s: %s\n%s", orUnknown(payload.text("risk")), payload.text("title"), payload.text("url")),
			tags:     []string{"contentsbuilder", "topic", "flagged"},
			priority: "high",
		}, true
	case EventCycleCompleted:
		return cycleMessage(payload), true
	case EventError:
		var b strings.Builder
		b.WriteString("Error")
		if label := payload.text("context"); label != "" {
			b.WriteString(" during ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		b.WriteString(orUnknown(payload.text("error")))
		return message{
			title:    "ContentsBuilder - Error",
			body:     b.String(),
			tags:     []string{"contentsbuilder", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "ContentsBuilder - Test",
			body:     "Notification system test",
			tags:     []string{"contentsbuilder", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func cycleMessage(payload Payload) message {
	cycle := orUnknown(payload.text("cycle"))
	failed := payload.number("failed")
	title := "ContentsBuilder - Cycle Complete"
	if failed > 0 {
		title = "ContentsBuilder - Cycle Complete (with errors)"
	}
	var duration time.Duration
	if d, ok := payload["duration"].(time.Duration); ok {
		duration = d.Round(time.Second)
	}
	if duration < 0 {
		duration = 0
	}
	body := fmt.Sprintf(
		"%s cycle: %d processed, %d promoted, %d ignored, %d failed in %s",
		cycle,
		payload.number("processed"),
		payload.number("promoted"),
		payload.number("ignored"),
		failed,
		duration,
	)
	return message{
		title: title,
		body:  body,
		tags:  []string{"contentsbuilder", "cycle", cycle},
	}
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
