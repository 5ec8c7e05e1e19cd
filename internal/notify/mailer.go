// AngelaMos | 2026
// mailer.go

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
)

const defaultBaseURL = "https://api.resend.com"

var welcomeTemplate = template.Must(template.New("welcome").Parse(
	`<h1>Welcome, {{.Name}}!</h1><p>Your account is ready. Happy shopping.</p>`,
))

// Mailer sends transactional email through a Resend-compatible API.
// With no API key every send is a logged no-op.
type Mailer struct {
	client  *http.Client
	apiKey  string
	from    string
	baseURL string
	retries uint64
	logger  *slog.Logger
}

func NewMailer(cfg config.EmailConfig, client *http.Client, logger *slog.Logger) *Mailer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Mailer{
		client:  client,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		baseURL: baseURL,
		retries: 2,
		logger:  logger,
	}
}

func (m *Mailer) Enabled() bool {
	return m.apiKey != ""
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, struct{ Name string }{name}); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}

	return m.send(ctx, sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Welcome to the store",
		HTML:    body.String(),
	})
}

func (m *Mailer) send(ctx context.Context, msg sendRequest) error {
	if !m.Enabled() {
		m.logger.Debug("notify.email_skipped", "subject", msg.Subject)
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	op := func() error {
		return m.post(ctx, payload)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), m.retries),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return err
	}

	m.logger.Info("notify.email_sent", "subject", msg.Subject)
	return nil
}

func (m *Mailer) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+"/emails",
		bytes.NewReader(payload),
	)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build email request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return core.Upstream("send email", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	//nolint:errcheck // best-effort drain for connection reuse
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return core.Upstream("send email",
			fmt.Errorf("provider returned %d", resp.StatusCode))
	default:
		return backoff.Permanent(
			fmt.Errorf("send email: provider rejected request with %d", resp.StatusCode))
	}
}
