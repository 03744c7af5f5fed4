package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"keepsake/internal/config"
)

const userAgent = "keepsake/0.1"

// Event names a notification kind.
type Event string

const (
	EventRunCompleted   Event = "run_completed"
	EventRunFailed      Event = "run_failed"
	EventRunInterrupted Event = "run_interrupted"
	EventTest           Event = "test"
)

// Payload carries the values an event message is rendered from.
type Payload map[string]string

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		onlyOnFailure: cfg.Notifications.OnlyOnFailure,
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	onlyOnFailure bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n.onlyOnFailure && event == EventRunCompleted {
		return nil
	}
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func render(event Event, p Payload) (message, bool) {
	switch event {
	case EventRunCompleted:
		return message{
			title: "keepsake - Backup complete",
			body: fmt.Sprintf("%s: %s archived, %s unchanged (%s) in %s",
				p["source"], p["processed"], p["skipped"], p["archive_size"], p["duration"]),
			tags: []string{"keepsake", "backup", "completed"},
		}, true
	case EventRunFailed:
		return message{
			title: "keepsake - Backup finished with errors",
			body: fmt.Sprintf("%s: %s archived, %s failed, %s unchanged in %s",
				p["source"], p["processed"], p["failed"], p["skipped"], p["duration"]),
			tags:     []string{"keepsake", "backup", "error"},
			priority: "high",
		}, true
	case EventRunInterrupted:
		return message{
			title: "keepsake - Backup interrupted",
			body: fmt.Sprintf("%s: stopped after %s files (%s archived, %s failed)",
				p["source"], p["total"], p["processed"], p["failed"]),
			tags:     []string{"keepsake", "backup", "interrupted"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "keepsake - Test",
			body:     "Notification system test",
			tags:     []string{"keepsake", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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
