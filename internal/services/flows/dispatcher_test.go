package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
)

type fakeOrchestrator struct {
	result  interfaces.AnswerResult
	lastReq interfaces.AnswerRequest
}

func (f *fakeOrchestrator) Answer(ctx context.Context, req interfaces.AnswerRequest) interfaces.AnswerResult {
	f.lastReq = req
	return f.result
}

type fakeDelivery struct {
	err   error
	calls int
	last  struct {
		provider, to, text string
		mode               models.DeliveryMode
	}
}

func (f *fakeDelivery) Deliver(ctx context.Context, provider, to, text string, mode models.DeliveryMode) (interfaces.DeliveryReceipt, error) {
	f.calls++
	f.last.provider, f.last.to, f.last.text, f.last.mode = provider, to, text, mode
	if f.err != nil {
		return interfaces.DeliveryReceipt{}, f.err
	}
	return interfaces.DeliveryReceipt{ProviderUsed: provider}, nil
}

type captureEvents struct {
	events []models.PipelineEvent
}

func (c *captureEvents) Publish(event models.PipelineEvent) {
	c.events = append(c.events, event)
}

func TestDispatchCivicReturnsTextWithoutDelivering(t *testing.T) {
	orch := &fakeOrchestrator{result: interfaces.AnswerResult{Text: "resposta", Success: true}}
	del := &fakeDelivery{}
	d := NewDispatcher(orch, del, nil, arbor.NewLogger())

	result, err := d.Dispatch(context.Background(), Request{
		Message: models.NormalizedMessage{UserID: "wa:1", Type: models.MessageTypeText, Text: "como tirar cpf?", Provider: "whatsapp"},
		To:      "1@c.us",
		Mode:    models.DeliveryModeText,
	})

	require.NoError(t, err)
	assert.Equal(t, models.IntentCivic, result.Intent)
	assert.False(t, result.Delivered)
	assert.Equal(t, "resposta", result.Text)
	assert.Equal(t, 0, del.calls)
}

func TestDispatchLegislativeDeliversInline(t *testing.T) {
	orch := &fakeOrchestrator{result: interfaces.AnswerResult{Text: "sobre o pl", Success: true}}
	del := &fakeDelivery{}
	d := NewDispatcher(orch, del, nil, arbor.NewLogger())

	result, err := d.Dispatch(context.Background(), Request{
		Message: models.NormalizedMessage{UserID: "wa:1", Type: models.MessageTypeText, Text: "como foi a votação do PL 123?", Provider: "whatsapp"},
		To:      "1@c.us",
		Mode:    models.DeliveryModeText,
	})

	require.NoError(t, err)
	assert.Equal(t, models.IntentLegislative, result.Intent)
	assert.True(t, result.Delivered)
	assert.Equal(t, 1, del.calls)
	assert.Equal(t, "whatsapp", del.last.provider)
	assert.Equal(t, "legislative", orch.lastReq.Flow)
}

func TestDispatchLegislativeDeliveryFailure(t *testing.T) {
	orch := &fakeOrchestrator{result: interfaces.AnswerResult{Text: "sobre o pl", Success: true}}
	del := &fakeDelivery{err: errors.New("gateway down")}
	d := NewDispatcher(orch, del, nil, arbor.NewLogger())

	result, err := d.Dispatch(context.Background(), Request{
		Message: models.NormalizedMessage{UserID: "wa:1", Type: models.MessageTypeText, Text: "votação do senado hoje", Provider: "whatsapp"},
		To:      "1@c.us",
		Mode:    models.DeliveryModeText,
	})

	assert.Error(t, err)
	assert.False(t, result.Delivered)
}

func TestDispatchMediaGoesToOracle(t *testing.T) {
	orch := &fakeOrchestrator{result: interfaces.AnswerResult{Text: "análise", Success: true}}
	d := NewDispatcher(orch, &fakeDelivery{}, nil, arbor.NewLogger())

	result, err := d.Dispatch(context.Background(), Request{
		Message: models.NormalizedMessage{UserID: "tg:1", Type: models.MessageTypeImage, MediaURL: "https://example.com/f.jpg", Provider: "telegram"},
		To:      "1",
	})

	require.NoError(t, err)
	assert.Equal(t, models.IntentOracle, result.Intent)
	assert.Equal(t, "oracle", orch.lastReq.Flow)
}

func TestDispatchPublishesPipelineEvents(t *testing.T) {
	orch := &fakeOrchestrator{result: interfaces.AnswerResult{Text: "ok", Success: true}}
	events := &captureEvents{}
	d := NewDispatcher(orch, &fakeDelivery{}, events, arbor.NewLogger())

	_, err := d.Dispatch(context.Background(), Request{
		Message:       models.NormalizedMessage{UserID: "wa:1", Type: models.MessageTypeText, Text: "oi", Provider: "whatsapp"},
		To:            "1@c.us",
		CorrelationID: "msg_test",
	})
	require.NoError(t, err)

	require.Len(t, events.events, 2)
	assert.Equal(t, models.EventIntentResolved, events.events[0].Kind)
	assert.Equal(t, models.EventAnswerProduced, events.events[1].Kind)
	assert.Equal(t, "msg_test", events.events[0].CorrelationID)
}
