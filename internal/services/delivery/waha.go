package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"golang.org/x/time/rate"
)

// WAHAProvider sends WhatsApp messages through a WAHA gateway.
// Requests are spaced by a rate limiter so bursts of webhook traffic do
// not trip the gateway's own throttling.
type WAHAProvider struct {
	baseURL    string
	apiKey     string
	session    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// NewWAHAProvider creates a WhatsApp provider from config
func NewWAHAProvider(config *common.WAHAConfig, logger arbor.ILogger) *WAHAProvider {
	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}

	spacing, err := time.ParseDuration(config.RateLimit)
	if err != nil || spacing <= 0 {
		spacing = 200 * time.Millisecond
	}

	session := config.Session
	if session == "" {
		session = "default"
	}

	return &WAHAProvider{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		session:    session,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(spacing), 1),
		logger:     logger,
	}
}

var _ interfaces.MessageProvider = (*WAHAProvider)(nil)

// Name returns the provider identifier
func (p *WAHAProvider) Name() string {
	return "whatsapp"
}

// SendText sends a text message to a chat
func (p *WAHAProvider) SendText(ctx context.Context, to, text string) error {
	payload := map[string]interface{}{
		"chatId":  to,
		"text":    text,
		"session": p.session,
	}
	return p.post(ctx, "/api/sendText", payload)
}

// SendAudio sends a voice message to a chat. The audio bytes are embedded
// as a base64 data URL, which WAHA accepts for the voice endpoint.
func (p *WAHAProvider) SendAudio(ctx context.Context, to string, audio []byte, mimeType string) error {
	if mimeType == "" {
		mimeType = "audio/ogg; codecs=opus"
	}
	payload := map[string]interface{}{
		"chatId":  to,
		"audio":   fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(audio)),
		"session": p.session,
	}
	return p.post(ctx, "/api/sendVoice", payload)
}

func (p *WAHAProvider) post(ctx context.Context, path string, payload map[string]interface{}) error {
	if p.baseURL == "" {
		return fmt.Errorf("waha: %w", interfaces.ErrMissingCredentials)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("x-api-key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &interfaces.ProviderAuthError{Provider: p.Name(), StatusCode: resp.StatusCode}
	}

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(detail))
	}

	p.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("WAHA request succeeded")
	return nil
}
