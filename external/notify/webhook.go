package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/relomy/dk-results/internal/platform/logging"
	"github.com/relomy/dk-results/internal/usecase"
)

// WebhookNotifier posts announcement text to a chat webhook as a
// {"content": ...} JSON body.
type WebhookNotifier struct {
	httpClient *http.Client
	url        string
	logger     *logging.Logger
}

var _ usecase.Notifier = (*WebhookNotifier)(nil)

type WebhookConfig struct {
	HTTPClient *http.Client
	URL        string
	Timeout    time.Duration
	Logger     *logging.Logger
}

func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		httpClient: httpClient,
		url:        url,
		logger:     logger,
	}, nil
}

func (n *WebhookNotifier) Send(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}

	body, err := sonic.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("webhook status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
