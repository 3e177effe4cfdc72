package tts

import (
	"context"
	"errors"

	"github.com/ternarybob/elo/internal/interfaces"
)

// FallbackTranscriptMessage is sent to the user when a voice note cannot
// be transcribed.
const FallbackTranscriptMessage = "Não consegui entender esse áudio. Pode tentar falar de novo?"

// ErrNotConfigured is returned when synthesis or transcription is invoked
// without a configured backend.
var ErrNotConfigured = errors.New("speech service not configured")

// Service is the speech seam. No backend ships in-process; when a
// synthesis or transcription engine is plugged in later it replaces this
// implementation behind the same interfaces. Until then Enabled reports
// false and the delivery engine stays text-only.
type Service struct{}

// NewService creates the speech service
func NewService() *Service {
	return &Service{}
}

var _ interfaces.SpeechSynthesizer = (*Service)(nil)
var _ interfaces.Transcriber = (*Service)(nil)

// Enabled reports whether a speech backend is configured
func (s *Service) Enabled() bool {
	return false
}

// Synthesize converts text to audio
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	return nil, "", ErrNotConfigured
}

// Transcribe converts audio to text
func (s *Service) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return "", ErrNotConfigured
}
