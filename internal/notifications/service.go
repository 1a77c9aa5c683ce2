package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lacquer/internal/config"
)

const userAgent = "Lacquer/0.1.0"

// Service defines the notification surface exposed to the scheduler and CLI.
type Service interface {
	NotifyJobStarted(ctx context.Context, jobID string, total int) error
	NotifyJobProgress(ctx context.Context, jobID string, completed, failed, total int) error
	NotifyJobCompleted(ctx context.Context, jobID string, completed, failed int, duration time.Duration) error
	NotifyJobCancelled(ctx context.Context, jobID string, completed, total int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
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

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobStarted(ctx context.Context, jobID string, total int) error {
	data := payload{
		title:   "Lacquer - Job Started",
		message: fmt.Sprintf("Started badge job %s with %d items", shortID(jobID), total),
		tags:    []string{"lacquer", "job", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobProgress(ctx context.Context, jobID string, completed, failed, total int) error {
	data := payload{
		title:   "Lacquer - Job Progress",
		message: fmt.Sprintf("Job %s: %d/%d done (%d failed)", shortID(jobID), completed+failed, total, failed),
		tags:    []string{"lacquer", "job", "progress"},
		// Progress is chatty; keep it below the notification threshold.
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID string, completed, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Lacquer - Job Complete"
		message = fmt.Sprintf("Job %s complete: %d posters badged in %s", shortID(jobID), completed, durationText)
	} else {
		title = "Lacquer - Job Complete (with errors)"
		message = fmt.Sprintf("Job %s complete: %d succeeded, %d failed in %s", shortID(jobID), completed, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"lacquer", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobCancelled(ctx context.Context, jobID string, completed, total int) error {
	data := payload{
		title:   "Lacquer - Job Cancelled",
		message: fmt.Sprintf("Job %s cancelled after %d of %d items", shortID(jobID), completed, total),
		tags:    []string{"lacquer", "job", "cancelled"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Lacquer - Error",
		message:  builder.String(),
		tags:     []string{"lacquer", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Lacquer - Test",
		message:  "Notification system test",
		tags:     []string{"lacquer", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
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

// shortID truncates a UUID to its first group for readable messages.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

type noopService struct{}

func (noopService) NotifyJobStarted(context.Context, string, int) error         { return nil }
func (noopService) NotifyJobProgress(context.Context, string, int, int, int) error { return nil }
func (noopService) NotifyJobCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyJobCancelled(context.Context, string, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
