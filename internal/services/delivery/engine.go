package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

// Engine delivers answers over registered providers with bounded retries.
// The primary provider gets the full attempt budget; when it is exhausted
// the configured fallback provider gets a fresh budget of its own. The
// console provider is never used as a fallback.
type Engine struct {
	config    *common.DeliveryConfig
	tts       interfaces.SpeechSynthesizer
	providers map[string]interfaces.MessageProvider
	logger    arbor.ILogger
}

// NewEngine creates a delivery engine
func NewEngine(config *common.DeliveryConfig, tts interfaces.SpeechSynthesizer, logger arbor.ILogger) *Engine {
	return &Engine{
		config:    config,
		tts:       tts,
		providers: make(map[string]interfaces.MessageProvider),
		logger:    logger,
	}
}

var _ interfaces.DeliveryEngine = (*Engine)(nil)

// Register adds a provider to the engine's registry
func (e *Engine) Register(provider interfaces.MessageProvider) {
	e.providers[provider.Name()] = provider
}

// Deliver sends text (and optionally synthesized audio) to the recipient.
// The returned receipt names the provider that accepted the text payload.
func (e *Engine) Deliver(ctx context.Context, provider, to, text string, mode models.DeliveryMode) (interfaces.DeliveryReceipt, error) {
	primary, ok := e.providers[provider]
	if !ok {
		return interfaces.DeliveryReceipt{}, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	err := e.sendWithRetries(ctx, primary, to, text)
	used := primary

	if err != nil {
		fallback := e.fallbackFor(provider)
		if fallback == nil {
			return interfaces.DeliveryReceipt{}, fmt.Errorf("%w via %s: %v", interfaces.ErrDeliveryFailed, provider, err)
		}

		e.logger.Warn().
			Str("provider", provider).
			Str("fallback", fallback.Name()).
			Err(err).
			Msg("Primary provider exhausted, using fallback")

		if err := e.sendWithRetries(ctx, fallback, to, text); err != nil {
			return interfaces.DeliveryReceipt{}, fmt.Errorf("%w via %s and fallback %s: %v", interfaces.ErrDeliveryFailed, provider, fallback.Name(), err)
		}
		used = fallback
	}

	receipt := interfaces.DeliveryReceipt{ProviderUsed: used.Name()}

	if mode == models.DeliveryModeTextAudio {
		receipt.AudioSent = e.sendAudio(ctx, used, to, text)
	}

	return receipt, nil
}

// sendWithRetries runs the attempt budget against one provider. Credential
// rejections are terminal for that provider: retrying cannot fix them.
func (e *Engine) sendWithRetries(ctx context.Context, provider interfaces.MessageProvider, to, text string) error {
	attempts := e.config.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = provider.SendText(ctx, to, text)
		if lastErr == nil {
			return nil
		}

		if interfaces.IsAuthError(lastErr) {
			e.logger.Error().
				Str("provider", provider.Name()).
				Err(lastErr).
				Msg("Provider rejected credentials, not retrying")
			return lastErr
		}

		if errors.Is(lastErr, interfaces.ErrMissingCredentials) {
			e.logger.Error().
				Str("provider", provider.Name()).
				Err(lastErr).
				Msg("Provider has no credentials configured, not retrying")
			return lastErr
		}

		if attempt == attempts {
			break
		}

		backoff := e.backoff(attempt)
		e.logger.Warn().
			Str("provider", provider.Name()).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Delivery attempt failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return lastErr
}

// sendAudio runs the best-effort audio leg. Failures are logged and never
// fail the delivery.
func (e *Engine) sendAudio(ctx context.Context, provider interfaces.MessageProvider, to, text string) bool {
	if e.tts == nil || !e.tts.Enabled() {
		return false
	}

	audio, mimeType, err := e.tts.Synthesize(ctx, text)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Speech synthesis failed, text-only delivery")
		return false
	}

	if err := provider.SendAudio(ctx, to, audio, mimeType); err != nil {
		e.logger.Warn().
			Str("provider", provider.Name()).
			Err(err).
			Msg("Audio delivery failed, text already sent")
		return false
	}
	return true
}

// fallbackFor resolves the fallback provider for a primary. A console
// primary is always the only attempt, and console never serves as a
// fallback target.
func (e *Engine) fallbackFor(primary string) interfaces.MessageProvider {
	if primary == "console" {
		return nil
	}
	name := e.config.FallbackProvider
	if name == "" || name == "console" || name == primary {
		return nil
	}
	return e.providers[name]
}

func (e *Engine) backoff(attempt int) time.Duration {
	delay := e.config.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}
	for i := 1; i < attempt; i++ {
		delay *= 2
		if e.config.MaxDelay > 0 && delay >= e.config.MaxDelay {
			return e.config.MaxDelay
		}
	}
	if e.config.MaxDelay > 0 && delay > e.config.MaxDelay {
		delay = e.config.MaxDelay
	}
	return delay
}

// ErrUnknownProvider is kept for callers that want to distinguish a routing
// mistake from a delivery failure.
var ErrUnknownProvider = errors.New("unknown delivery provider")
