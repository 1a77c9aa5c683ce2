package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lacquer/internal/config"
	"lacquer/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyJobCompleted(context.Background(), "job-1", 3, 0, time.Second); err != nil {
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
			name: "job started",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobStarted(context.Background(), "9b2f1c00-aaaa-bbbb-cccc-000000000000", 12)
			},
			expectTitle:   "Lacquer - Job Started",
			expectMessage: "Started badge job 9b2f1c00 with 12 items",
			expectTags:    "lacquer,job,started",
		},
		{
			name: "progress",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobProgress(context.Background(), "9b2f1c00-aaaa-bbbb-cccc-000000000000", 7, 1, 12)
			},
			expectTitle:    "Lacquer - Job Progress",
			expectMessage:  "Job 9b2f1c00: 8/12 done (1 failed)",
			expectTags:     "lacquer,job,progress",
			expectPriority: "low",
		},
		{
			name: "completed clean",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobCompleted(context.Background(), "9b2f1c00-aaaa-bbbb-cccc-000000000000", 12, 0, 90*time.Second)
			},
			expectTitle:   "Lacquer - Job Complete",
			expectMessage: "Job 9b2f1c00 complete: 12 posters badged in 1m30s",
			expectTags:    "lacquer,job,completed",
		},
		{
			name: "completed with failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobCompleted(context.Background(), "9b2f1c00-aaaa-bbbb-cccc-000000000000", 10, 2, 0)
			},
			expectTitle:   "Lacquer - Job Complete (with errors)",
			expectMessage: "Job 9b2f1c00 complete: 10 succeeded, 2 failed in 0s",
			expectTags:    "lacquer,job,completed",
		},
		{
			name: "cancelled",
			notify: func(svc notifications.Service) error {
				return svc.NotifyJobCancelled(context.Background(), "9b2f1c00-aaaa-bbbb-cccc-000000000000", 4, 12)
			},
			expectTitle:   "Lacquer - Job Cancelled",
			expectMessage: "Job 9b2f1c00 cancelled after 4 of 12 items",
			expectTags:    "lacquer,job,cancelled",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("poster upload rejected"), "upload")
			},
			expectTitle:    "Lacquer - Error",
			expectMessage:  "Error with upload: poster upload rejected",
			expectTags:     "lacquer,error,alert",
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

func TestNtfyServiceReportsHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(&cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
