package delivery

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
)

// ConsoleProvider logs outgoing messages instead of sending them. It exists
// for local development and is never eligible as a fallback provider.
type ConsoleProvider struct {
	logger arbor.ILogger
}

// NewConsoleProvider creates a console provider
func NewConsoleProvider(logger arbor.ILogger) *ConsoleProvider {
	return &ConsoleProvider{logger: logger}
}

var _ interfaces.MessageProvider = (*ConsoleProvider)(nil)

// Name returns the provider identifier
func (p *ConsoleProvider) Name() string {
	return "console"
}

// SendText logs the message text
func (p *ConsoleProvider) SendText(ctx context.Context, to, text string) error {
	p.logger.Info().
		Str("to", to).
		Str("text", text).
		Msg("Console delivery")
	return nil
}

// SendAudio logs that audio would have been sent
func (p *ConsoleProvider) SendAudio(ctx context.Context, to string, audio []byte, mimeType string) error {
	p.logger.Info().
		Str("to", to).
		Int("bytes", len(audio)).
		Str("mime_type", mimeType).
		Msg("Console delivery (audio)")
	return nil
}
