package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"keepsake/internal/config"
	"keepsake/internal/logging"
	"keepsake/internal/notifications"
	"keepsake/internal/pipeline"
)

type capture struct {
	mu       sync.Mutex
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, c *capture, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		c.mu.Lock()
		c.calls++
		c.title = r.Header.Get("Title")
		c.tags = r.Header.Get("Tags")
		c.priority = r.Header.Get("Priority")
		c.body = string(body)
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if notifications.Enabled(svc) {
		t.Fatal("expected disabled service without topic")
	}
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	payload := notifications.Payload{
		"source":       "/photos",
		"total":        "5",
		"processed":    "3",
		"skipped":      "1",
		"failed":       "1",
		"archive_size": "2.0 MiB",
		"duration":     "1m0s",
	}
	tests := []struct {
		name           string
		event          notifications.Event
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "completed",
			event:         notifications.EventRunCompleted,
			expectTitle:   "keepsake - Backup complete",
			expectMessage: "/photos: 3 archived, 1 unchanged (2.0 MiB) in 1m0s",
			expectTags:    "keepsake,backup,completed",
		},
		{
			name:           "failed",
			event:          notifications.EventRunFailed,
			expectTitle:    "keepsake - Backup finished with errors",
			expectMessage:  "/photos: 3 archived, 1 failed, 1 unchanged in 1m0s",
			expectTags:     "keepsake,backup,error",
			expectPriority: "high",
		},
		{
			name:           "interrupted",
			event:          notifications.EventRunInterrupted,
			expectTitle:    "keepsake - Backup interrupted",
			expectMessage:  "/photos: stopped after 5 files (3 archived, 1 failed)",
			expectTags:     "keepsake,backup,interrupted",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "keepsake - Test",
			expectMessage:  "Notification system test",
			expectTags:     "keepsake,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured capture
			server := newServer(t, &captured, http.StatusOK)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	var captured capture
	server := newServer(t, &captured, http.StatusForbidden)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestOnlyOnFailureSuppressesCleanRuns(t *testing.T) {
	var captured capture
	server := newServer(t, &captured, http.StatusOK)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnlyOnFailure = true
	svc := notifications.NewService(&cfg)

	if err := svc.Publish(context.Background(), notifications.EventRunCompleted, notifications.Payload{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if captured.calls != 0 {
		t.Fatalf("expected clean run to be suppressed, got %d calls", captured.calls)
	}
	if err := svc.Publish(context.Background(), notifications.EventRunFailed, notifications.Payload{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if captured.calls != 1 {
		t.Fatalf("expected failed run to be sent, got %d calls", captured.calls)
	}
}

func TestObserverPicksEventFromStats(t *testing.T) {
	var captured capture
	server := newServer(t, &captured, http.StatusOK)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	obs := notifications.NewObserver(notifications.NewService(&cfg), logging.NewNop())

	info := pipeline.RunInfo{RunID: "r1", Mode: "compress", Source: "/src"}
	obs.OnStart(info)
	obs.OnFinish(info, pipeline.Stats{Total: 2, Processed: 1, Failed: 1, WallTime: 90 * time.Second})
	if captured.title != "keepsake - Backup finished with errors" {
		t.Fatalf("unexpected title %q", captured.title)
	}

	obs.OnFinish(info, pipeline.Stats{Total: 2, Interrupted: true})
	if captured.title != "keepsake - Backup interrupted" {
		t.Fatalf("unexpected title %q", captured.title)
	}
}

func TestSummaryPayload(t *testing.T) {
	p := notifications.SummaryPayload(
		pipeline.RunInfo{RunID: "r", Source: "/s"},
		pipeline.Stats{Total: 4, Processed: 2, Skipped: 2, ArchiveBytes: 3 << 20, WallTime: 61500 * time.Millisecond},
	)
	if p["archive_size"] != "3.0 MiB" || p["duration"] != "1m2s" || p["total"] != "4" {
		t.Fatalf("unexpected payload %v", p)
	}
}
