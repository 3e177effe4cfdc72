package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
	"github.com/ternarybob/elo/internal/services/dedup"
	"github.com/ternarybob/elo/internal/services/flows"
	"github.com/ternarybob/elo/internal/storage/memory"
)

type stubOrchestrator struct {
	text string
}

func (s *stubOrchestrator) Answer(ctx context.Context, req interfaces.AnswerRequest) interfaces.AnswerResult {
	return interfaces.AnswerResult{Text: s.text, Success: true}
}

type stubDelivery struct {
	err   error
	calls int
	last  struct {
		provider, to, text string
	}
}

func (s *stubDelivery) Deliver(ctx context.Context, provider, to, text string, mode models.DeliveryMode) (interfaces.DeliveryReceipt, error) {
	s.calls++
	s.last.provider, s.last.to, s.last.text = provider, to, text
	if s.err != nil {
		return interfaces.DeliveryReceipt{}, s.err
	}
	return interfaces.DeliveryReceipt{ProviderUsed: provider}, nil
}

func newWhatsAppFixture(deliveryErr error) (*WhatsAppHandler, *stubDelivery) {
	del := &stubDelivery{err: deliveryErr}
	dispatcher := flows.NewDispatcher(&stubOrchestrator{text: "resposta do elo"}, del, nil, arbor.NewLogger())
	dedupSvc := dedup.NewService(&common.DedupConfig{TTL: 5 * time.Minute}, memory.NewStore(), arbor.NewLogger())
	return NewWhatsAppHandler(dispatcher, del, dedupSvc, nil, arbor.NewLogger()), del
}

func postWhatsApp(t *testing.T, handler *WhatsAppHandler, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)
	return rec
}

func wahaMessage(id, from, body string) map[string]interface{} {
	return map[string]interface{}{
		"event":   "message",
		"session": "default",
		"payload": map[string]interface{}{
			"id":   id,
			"from": from,
			"body": body,
		},
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestWhatsAppDeliversAnswer(t *testing.T) {
	handler, del := newWhatsAppFixture(nil)

	rec := postWhatsApp(t, handler, wahaMessage("m1", "5511999@c.us", "como tirar cpf?"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["delivered"])
	assert.Equal(t, 1, del.calls)
	assert.Equal(t, "whatsapp", del.last.provider)
	assert.Equal(t, "5511999@c.us", del.last.to)
}

func TestWhatsAppRejectsMalformedJSON(t *testing.T) {
	handler, _ := newWhatsAppFixture(nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.HandleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWhatsAppFiltersPayloads(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		reason string
	}{
		{
			name:   "unsupported event",
			mutate: func(m map[string]interface{}) { m["event"] = "session.status" },
			reason: "unsupported_event",
		},
		{
			name: "own message",
			mutate: func(m map[string]interface{}) {
				m["payload"].(map[string]interface{})["fromMe"] = true
			},
			reason: "own_message",
		},
		{
			name: "group chat",
			mutate: func(m map[string]interface{}) {
				m["payload"].(map[string]interface{})["from"] = "1203630@g.us"
			},
			reason: "non_user_chat",
		},
		{
			name: "newsletter",
			mutate: func(m map[string]interface{}) {
				m["payload"].(map[string]interface{})["from"] = "1203630@newsletter"
			},
			reason: "non_user_chat",
		},
		{
			name: "empty body",
			mutate: func(m map[string]interface{}) {
				m["payload"].(map[string]interface{})["body"] = "   "
			},
			reason: "empty_body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, del := newWhatsAppFixture(nil)
			payload := wahaMessage("m1", "5511999@c.us", "oi")
			tt.mutate(payload)

			rec := postWhatsApp(t, handler, payload)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "ignored", body["status"])
			assert.Equal(t, tt.reason, body["reason"])
			assert.Equal(t, 0, del.calls)
		})
	}
}

func TestWhatsAppDropsDuplicateMessage(t *testing.T) {
	handler, del := newWhatsAppFixture(nil)

	first := postWhatsApp(t, handler, wahaMessage("m1", "5511999@c.us", "oi, tudo bem?"))
	assert.Equal(t, true, decodeBody(t, first)["delivered"])

	second := postWhatsApp(t, handler, wahaMessage("m1", "5511999@c.us", "oi, tudo bem?"))
	body := decodeBody(t, second)
	assert.Equal(t, "ignored", body["status"])
	assert.Equal(t, "duplicate", body["reason"])
	assert.Equal(t, 1, del.calls)
}

func TestWhatsAppReportsProviderErrorWithoutRetryStatus(t *testing.T) {
	handler, _ := newWhatsAppFixture(interfaces.ErrDeliveryFailed)

	rec := postWhatsApp(t, handler, wahaMessage("m1", "5511999@c.us", "como tirar cpf?"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["delivered"])
	assert.Equal(t, "provider_error", body["reason"])
}

func TestWhatsAppReportsGenericFailureAsIntentError(t *testing.T) {
	handler, _ := newWhatsAppFixture(errors.New("boom"))

	// legislative text triggers inline delivery inside the dispatcher
	rec := postWhatsApp(t, handler, wahaMessage("m1", "5511999@c.us", "como foi a votação do PL 123?"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["delivered"])
	assert.Equal(t, "intent_error", body["reason"])
}
