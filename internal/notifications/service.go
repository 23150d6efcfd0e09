package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tempo/internal/config"
)

const userAgent = "Tempo/0.1.0"

// Service defines the notification surface exposed to collection and
// rendering components.
type Service interface {
	NotifyCollectCompleted(ctx context.Context, targets, succeeded, failed int, duration time.Duration) error
	NotifyCollectFailed(ctx context.Context, err error) error
	NotifyAnomalies(ctx context.Context, count int, sources []string) error
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
		endpoint: endpointFor(cfg.Notifications.NtfyServer, topic),
		client:   client,
	}
}

// endpointFor joins the server and topic; a topic that is already a full
// URL is used as-is.
func endpointFor(server, topic string) string {
	if strings.Contains(topic, "://") {
		return topic
	}
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if server == "" {
		server = "https://ntfy.sh"
	}
	return server + "/" + topic
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

func (n *ntfyService) NotifyCollectCompleted(ctx context.Context, targets, succeeded, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration <= 0 {
		duration = time.Second
	}

	var title, message string
	if failed == 0 {
		title = "Tempo - Collection Complete"
		message = fmt.Sprintf("Collected %d of %d targets in %s", succeeded, targets, duration)
	} else {
		title = "Tempo - Collection Complete (with errors)"
		message = fmt.Sprintf("Collected %d of %d targets in %s, %d failed", succeeded, targets, duration, failed)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"tempo", "collect", "completed"},
	}
	if failed > 0 {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCollectFailed(ctx context.Context, err error) error {
	message := "Collection failed"
	if err != nil {
		message = fmt.Sprintf("Collection failed: %s", strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    "Tempo - Collection Failed",
		message:  message,
		tags:     []string{"tempo", "collect", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyAnomalies(ctx context.Context, count int, sources []string) error {
	message := fmt.Sprintf("%d negative counter drops detected", count)
	if len(sources) > 0 {
		message = fmt.Sprintf("%s (%s)", message, strings.Join(sources, ", "))
	}
	data := payload{
		title:    "Tempo - Anomalies Detected",
		message:  message,
		tags:     []string{"tempo", "anomaly"},
		priority: "high",
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

func (noopService) NotifyCollectCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyCollectFailed(context.Context, error) error     { return nil }
func (noopService) NotifyAnomalies(context.Context, int, []string) error { return nil }
