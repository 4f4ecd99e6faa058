package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contentsbuilder/internal/config"
	"contentsbuilder/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventPromoted, notifications.Payload{"title": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "promoted",
			event: notifications.EventPromoted,
			payload: notifications.Payload{
				"title": "Shelter adoption drive",
				"url":   "https://example.com/a",
				"score": 8,
			},
			expectTitle:   "ContentsBuilder - Promoted",
			expectMessage: "Promoted (score 8): Shelter adoption drive\nhttps://example.com/a",
			expectTags:    "contentsbuilder,topic,promoted",
		},
		{
			name:  "flagged",
			event: notifications.EventFlagged,
			payload: notifications.Payload{
				"title": "Viral claim",
				"url":   "https://example.com/b",
				"risk":  "high",
			},
			expectTitle:    "ContentsBuilder - Review Needed",
			expectMessage:  "Misinformation risk high: Viral claim\nhttps://example.com/b",
			expectTags:     "contentsbuilder,topic,flagged",
			expectPriority: "high",
		},
		{
			name:  "cycle with failures",
			event: notifications.EventCycleCompleted,
			payload: notifications.Payload{
				"cycle":     "screening",
				"processed": 5,
				"promoted":  2,
				"ignored":   2,
				"failed":    1,
				"duration":  1500 * time.Millisecond,
			},
			expectTitle:   "ContentsBuilder - Cycle Complete (with errors)",
			expectMessage: "screening cycle: 5 processed, 2 promoted, 2 ignored, 1 failed in 2s",
			expectTags:    "contentsbuilder,cycle,screening",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "screening",
				"error":   "workbook unavailable",
			},
			expectTitle:    "ContentsBuilder - Error",
			expectMessage:  "Error during screening: workbook unavailable",
			expectTags:     "contentsbuilder,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5
			cfg.Notifications.Cycle = true

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
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

func TestNtfyServiceIgnoresSuppressedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for suppressed event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Promoted = false
	cfg.Notifications.Flagged = false
	cfg.Notifications.Cycle = false

	svc := notifications.NewService(&cfg)
	suppressed := []notifications.Event{
		notifications.EventPromoted,
		notifications.EventFlagged,
		notifications.EventCycleCompleted,
		notifications.Event("unknown"),
	}

	for _, event := range suppressed {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"title": "ignored"}); err != nil {
			t.Fatalf("expected no error for suppressed event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic locked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic locked") {
		t.Fatalf("expected status error, got %v", err)
	}
}
