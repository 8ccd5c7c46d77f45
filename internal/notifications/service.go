package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"statmatch/internal/config"
)

const userAgent = "Statmatch/0.1.0"

// Service defines the notification surface exposed to worker components.
type Service interface {
	NotifyBatchCompleted(ctx context.Context, experimentID string, candidates, verified int, duration time.Duration) error
	NotifyBatchFailed(ctx context.Context, experimentID, reason string) error
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

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		batchEvents: cfg.Notifications.Batches,
		errorEvents: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	batchEvents bool
	errorEvents bool
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, experimentID string, candidates, verified int, duration time.Duration) error {
	if !n.batchEvents {
		return nil
	}
	duration = duration.Round(time.Millisecond)
	if duration < 0 {
		duration = 0
	}
	data := payload{
		title: "Statmatch - Batch Complete",
		message: fmt.Sprintf("Experiment %s: %d candidates ranked, %d verified in %s",
			strings.TrimSpace(experimentID), candidates, verified, duration),
		tags: []string{"statmatch", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchFailed(ctx context.Context, experimentID, reason string) error {
	if !n.batchEvents {
		return nil
	}
	data := payload{
		title: "Statmatch - Batch Failed",
		message: fmt.Sprintf("Experiment %s failed: %s",
			strings.TrimSpace(experimentID), strings.TrimSpace(reason)),
		tags:     []string{"statmatch", "batch", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorEvents {
		return nil
	}
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
		title:    "Statmatch - Error",
		message:  builder.String(),
		tags:     []string{"statmatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Statmatch - Test",
		message:  "Notification system test",
		tags:     []string{"statmatch", "test"},
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

func (noopService) NotifyBatchCompleted(context.Context, string, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyBatchFailed(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
