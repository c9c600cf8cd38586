package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catalogd/internal/config"
)

const userAgent = "catalogd/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyReviewQueued(ctx context.Context, reviewID int64, productName string, priority int) error
	NotifyRunCompleted(ctx context.Context, runID, productName string, masterID int64) error
	NotifyRunFailed(ctx context.Context, runID, detail string) error
	NotifyMasterCreated(ctx context.Context, masterID int64, productName string) error
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

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		sendReview:  cfg.Notifications.Review,
		sendRuns:    cfg.Notifications.Runs,
		sendErrors:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sendReview bool
	sendRuns   bool
	sendErrors bool
}

func (n *ntfyService) NotifyReviewQueued(ctx context.Context, reviewID int64, productName string, priority int) error {
	if !n.sendReview {
		return nil
	}
	productName = strings.TrimSpace(productName)
	if productName == "" {
		productName = "(unnamed product)"
	}
	data := payload{
		title:   "catalogd - Review Needed",
		message: fmt.Sprintf("Review #%d queued: %s (priority %d)", reviewID, productName, priority),
		tags:    []string{"catalogd", "review", "queued"},
	}
	if priority >= 50 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, runID, productName string, masterID int64) error {
	if !n.sendRuns {
		return nil
	}
	productName = strings.TrimSpace(productName)
	message := fmt.Sprintf("Run %s completed", runID)
	if productName != "" {
		message = fmt.Sprintf("%s: %s", message, productName)
	}
	if masterID != 0 {
		message = fmt.Sprintf("%s (master #%d)", message, masterID)
	}
	data := payload{
		title:   "catalogd - Run Complete",
		message: message,
		tags:    []string{"catalogd", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, runID, detail string) error {
	if !n.sendErrors {
		return nil
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = "unknown error"
	}
	data := payload{
		title:    "catalogd - Run Failed",
		message:  fmt.Sprintf("Run %s failed: %s", runID, detail),
		tags:     []string{"catalogd", "run", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMasterCreated(ctx context.Context, masterID int64, productName string) error {
	if !n.sendRuns {
		return nil
	}
	productName = strings.TrimSpace(productName)
	if productName == "" {
		productName = "(unnamed product)"
	}
	data := payload{
		title:   "catalogd - Master Created",
		message: fmt.Sprintf("New master record #%d: %s", masterID, productName),
		tags:    []string{"catalogd", "master", "created"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "catalogd - Test",
		message:  "Notification system test",
		tags:     []string{"catalogd", "test"},
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

type noopService struct{}

func (noopService) NotifyReviewQueued(context.Context, int64, string, int) error    { return nil }
func (noopService) NotifyRunCompleted(context.Context, string, string, int64) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, string) error           { return nil }
func (noopService) NotifyMasterCreated(context.Context, int64, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
