package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mpsync/internal/config"
	"mpsync/internal/reconcile"
)

const userAgent = "mpsync/0.1"

// Notifier reports the outcome of a sync run.
type Notifier interface {
	NotifyRunCompleted(ctx context.Context, summary *reconcile.RunSummary) error
	NotifyRunFailed(ctx context.Context, summary *reconcile.RunSummary, err error) error
}

// NewService builds an ntfy-backed notifier, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Notifier {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
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

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary *reconcile.RunSummary) error {
	if summary == nil {
		return nil
	}
	failed := summary.Scan.Failed + summary.Sync.Failed
	data := payload{
		title: "mpsync - Sync Complete",
		message: fmt.Sprintf("Playlist %s: %d claimed, %d downloaded, %d pruned in %s",
			summary.PlaylistID, summary.Sync.Claimed, summary.Sync.Inserted, summary.Verify.Pruned, roundDuration(summary.Duration)),
		tags: []string{"mpsync", "sync", "completed"},
	}
	if failed > 0 {
		data.title = "mpsync - Sync Complete (with failures)"
		data.message += fmt.Sprintf("\n%d item(s) failed; rerun to retry", failed)
		data.tags = append(data.tags, "warning")
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, summary *reconcile.RunSummary, err error) error {
	var builder strings.Builder
	builder.WriteString("Sync failed")
	if summary != nil && summary.PlaylistID != "" {
		builder.WriteString(" for playlist ")
		builder.WriteString(summary.PlaylistID)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	if summary != nil && len(summary.Completed) > 0 {
		builder.WriteString("\nCommitted phases: ")
		builder.WriteString(strings.Join(summary.Completed, ", "))
	}
	return n.send(ctx, payload{
		title:    "mpsync - Error",
		message:  builder.String(),
		tags:     []string{"mpsync", "error", "alert"},
		priority: "high",
	})
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

func roundDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, *reconcile.RunSummary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, *reconcile.RunSummary, error) error {
	return nil
}
