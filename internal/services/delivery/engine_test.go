package delivery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

type fakeProvider struct {
	name       string
	failTexts  int
	textCalls  int
	audioCalls int
	audioErr   error
	sendErr    error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SendText(ctx context.Context, to, text string) error {
	f.textCalls++
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.textCalls <= f.failTexts {
		return errors.New("transient send failure")
	}
	return nil
}

func (f *fakeProvider) SendAudio(ctx context.Context, to string, audio []byte, mimeType string) error {
	f.audioCalls++
	return f.audioErr
}

type fakeTTS struct {
	enabled bool
	err     error
}

func (f *fakeTTS) Enabled() bool { return f.enabled }

func (f *fakeTTS) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("ogg"), "audio/ogg", nil
}

func fastConfig(fallback string) *common.DeliveryConfig {
	return &common.DeliveryConfig{
		MaxAttempts:      3,
		BaseDelay:        time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		FallbackProvider: fallback,
	}
}

func TestDeliverRetriesThenSucceeds(t *testing.T) {
	provider := &fakeProvider{name: "whatsapp", failTexts: 2}
	engine := NewEngine(fastConfig(""), nil, arbor.NewLogger())
	engine.Register(provider)

	receipt, err := engine.Deliver(context.Background(), "whatsapp", "551199@c.us", "oi", models.DeliveryModeText)
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", receipt.ProviderUsed)
	assert.Equal(t, 3, provider.textCalls)
}

func TestDeliverUsesFallbackAfterExhaustion(t *testing.T) {
	primary := &fakeProvider{name: "whatsapp", sendErr: errors.New("gateway down")}
	fallback := &fakeProvider{name: "telegram"}
	engine := NewEngine(fastConfig("telegram"), nil, arbor.NewLogger())
	engine.Register(primary)
	engine.Register(fallback)

	receipt, err := engine.Deliver(context.Background(), "whatsapp", "123", "oi", models.DeliveryModeText)
	require.NoError(t, err)
	assert.Equal(t, "telegram", receipt.ProviderUsed)
	assert.Equal(t, 3, primary.textCalls)
	assert.Equal(t, 1, fallback.textCalls)
}

func TestDeliverFailsWhenBothExhausted(t *testing.T) {
	primary := &fakeProvider{name: "whatsapp", sendErr: errors.New("gateway down")}
	fallback := &fakeProvider{name: "telegram", sendErr: errors.New("also down")}
	engine := NewEngine(fastConfig("telegram"), nil, arbor.NewLogger())
	engine.Register(primary)
	engine.Register(fallback)

	_, err := engine.Deliver(context.Background(), "whatsapp", "123", "oi", models.DeliveryModeText)
	assert.ErrorIs(t, err, interfaces.ErrDeliveryFailed)
}

func TestDeliverAuthErrorIsNotRetried(t *testing.T) {
	primary := &fakeProvider{
		name:    "whatsapp",
		sendErr: &interfaces.ProviderAuthError{Provider: "whatsapp", StatusCode: 401},
	}
	engine := NewEngine(fastConfig(""), nil, arbor.NewLogger())
	engine.Register(primary)

	_, err := engine.Deliver(context.Background(), "whatsapp", "123", "oi", models.DeliveryModeText)
	assert.Error(t, err)
	assert.Equal(t, 1, primary.textCalls)
}

func TestDeliverMissingCredentialsIsNotRetried(t *testing.T) {
	primary := &fakeProvider{
		name:    "whatsapp",
		sendErr: fmt.Errorf("%w: waha base url not configured", interfaces.ErrMissingCredentials),
	}
	fallback := &fakeProvider{name: "telegram"}
	engine := NewEngine(fastConfig("telegram"), nil, arbor.NewLogger())
	engine.Register(primary)
	engine.Register(fallback)

	receipt, err := engine.Deliver(context.Background(), "whatsapp", "123", "oi", models.DeliveryModeText)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.textCalls)
	assert.Equal(t, "telegram", receipt.ProviderUsed)
}

func TestDeliverConsoleNeverUsedAsFallback(t *testing.T) {
	primary := &fakeProvider{name: "whatsapp", sendErr: errors.New("gateway down")}
	console := &fakeProvider{name: "console"}
	engine := NewEngine(fastConfig("console"), nil, arbor.NewLogger())
	engine.Register(primary)
	engine.Register(console)

	_, err := engine.Deliver(context.Background(), "whatsapp", "123", "oi", models.DeliveryModeText)
	assert.ErrorIs(t, err, interfaces.ErrDeliveryFailed)
	assert.Equal(t, 0, console.textCalls)
}

func TestDeliverConsolePrimaryIsOnlyAttempt(t *testing.T) {
	console := &fakeProvider{name: "console", sendErr: errors.New("stdout closed")}
	fallback := &fakeProvider{name: "telegram"}
	engine := NewEngine(fastConfig("telegram"), nil, arbor.NewLogger())
	engine.Register(console)
	engine.Register(fallback)

	_, err := engine.Deliver(context.Background(), "console", "123", "oi", models.DeliveryModeText)
	assert.ErrorIs(t, err, interfaces.ErrDeliveryFailed)
	assert.Equal(t, 0, fallback.textCalls)
}

func TestDeliverFallbackNeverSameAsPrimary(t *testing.T) {
	primary := &fakeProvider{name: "whatsapp", sendErr: errors.New("gateway down")}
	engine := NewEngine(fastConfig("whatsapp"), nil, arbor.NewLogger())
	engine.Register(primary)

	_, err := engine.Deliver(context.Background(), "whatsapp", "123", "oi", models.DeliveryModeText)
	assert.ErrorIs(t, err, interfaces.ErrDeliveryFailed)
	assert.Equal(t, 3, primary.textCalls)
}

func TestDeliverAudioFailureDoesNotFailDelivery(t *testing.T) {
	provider := &fakeProvider{name: "telegram", audioErr: errors.New("voice rejected")}
	engine := NewEngine(fastConfig(""), &fakeTTS{enabled: true}, arbor.NewLogger())
	engine.Register(provider)

	receipt, err := engine.Deliver(context.Background(), "telegram", "123", "oi", models.DeliveryModeTextAudio)
	require.NoError(t, err)
	assert.False(t, receipt.AudioSent)
	assert.Equal(t, 1, provider.audioCalls)
}

func TestDeliverAudioSentWhenSynthesisWorks(t *testing.T) {
	provider := &fakeProvider{name: "telegram"}
	engine := NewEngine(fastConfig(""), &fakeTTS{enabled: true}, arbor.NewLogger())
	engine.Register(provider)

	receipt, err := engine.Deliver(context.Background(), "telegram", "123", "oi", models.DeliveryModeTextAudio)
	require.NoError(t, err)
	assert.True(t, receipt.AudioSent)
}

func TestDeliverUnknownProvider(t *testing.T) {
	engine := NewEngine(fastConfig(""), nil, arbor.NewLogger())

	_, err := engine.Deliver(context.Background(), "pigeon", "123", "oi", models.DeliveryModeText)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
