package interfaces

import (
	"context"

	"github.com/ternarybob/elo/internal/models"
)

// MessageProvider sends outbound payloads on one channel. SendText and
// SendAudio return nil on acceptance by the channel; a *ProviderAuthError
// marks credential rejection, any other error is considered transient.
type MessageProvider interface {
	// Name identifies the provider in receipts and logs
	Name() string

	SendText(ctx context.Context, to string, text string) error

	SendAudio(ctx context.Context, to string, audio []byte, mimeType string) error
}

// DeliveryReceipt reports how a delivery actually went out.
type DeliveryReceipt struct {
	// ProviderUsed names the provider that accepted the text payload
	ProviderUsed string

	// AudioSent is true only when the audio leg was requested and succeeded
	AudioSent bool
}

// DeliveryEngine sends an answer through the primary provider with retries,
// falling back to the secondary provider when the primary is exhausted.
type DeliveryEngine interface {
	Deliver(ctx context.Context, provider string, to string, text string, mode models.DeliveryMode) (DeliveryReceipt, error)
}

// SpeechSynthesizer turns answer text into playable audio. The delivery
// engine treats every failure as best-effort: a synthesis error never fails
// the text delivery.
type SpeechSynthesizer interface {
	// Enabled reports whether synthesis is configured at all
	Enabled() bool

	Synthesize(ctx context.Context, text string) (audio []byte, mimeType string, err error)
}

// Transcriber converts inbound voice messages to text before classification.
type Transcriber interface {
	Enabled() bool

	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
