package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalogd/internal/config"
	"catalogd/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunCompleted(context.Background(), "run-1", "蒙脱石散", 4); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "review queued",
			notify: func(svc notifications.Service) error {
				return svc.NotifyReviewQueued(context.Background(), 12, "蒙脱石散", 70)
			},
			expectTitle:    "catalogd - Review Needed",
			expectMessage:  "Review #12 queued: 蒙脱石散 (priority 70)",
			expectTags:     "catalogd,review,queued",
			expectPriority: "high",
		},
		{
			name: "run completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunCompleted(context.Background(), "run-1", "蒙脱石散", 4)
			},
			expectTitle:   "catalogd - Run Complete",
			expectMessage: "Run run-1 completed: 蒙脱石散 (master #4)",
			expectTags:    "catalogd,run,completed",
		},
		{
			name: "run failed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRunFailed(context.Background(), "run-2", "match: query master pool")
			},
			expectTitle:    "catalogd - Run Failed",
			expectMessage:  "Run run-2 failed: match: query master pool",
			expectTags:     "catalogd,run,failed",
			expectPriority: "high",
		},
		{
			name: "master created",
			notify: func(svc notifications.Service) error {
				return svc.NotifyMasterCreated(context.Background(), 9, "蒙脱石散")
			},
			expectTitle:   "catalogd - Master Created",
			expectMessage: "New master record #9: 蒙脱石散",
			expectTags:    "catalogd,master,created",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "catalogd - Test",
			expectMessage:  "Notification system test",
			expectTags:     "catalogd,test",
			expectPriority: "low",
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
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
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

func TestNtfyServiceHonorsToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for muted event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Review = false
	cfg.Notifications.Runs = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	if err := svc.NotifyReviewQueued(ctx, 1, "x", 50); err != nil {
		t.Fatalf("muted review notification errored: %v", err)
	}
	if err := svc.NotifyRunCompleted(ctx, "run-1", "x", 0); err != nil {
		t.Fatalf("muted run notification errored: %v", err)
	}
	if err := svc.NotifyRunFailed(ctx, "run-1", "x"); err != nil {
		t.Fatalf("muted error notification errored: %v", err)
	}
}
