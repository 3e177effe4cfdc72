package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
	"github.com/ternarybob/elo/internal/services/dedup"
	"github.com/ternarybob/elo/internal/services/flows"
)

// wahaWebhook is the envelope WAHA posts for inbound events.
type wahaWebhook struct {
	Event   string `json:"event"`
	Session string `json:"session"`
	Payload struct {
		ID       string `json:"id"`
		From     string `json:"from"`
		To       string `json:"to"`
		FromMe   bool   `json:"fromMe"`
		Body     string `json:"body"`
		HasMedia bool   `json:"hasMedia"`
		Media    struct {
			URL      string `json:"url"`
			Mimetype string `json:"mimetype"`
		} `json:"media"`
	} `json:"payload"`
}

// WhatsAppHandler receives WAHA webhook events. Filtered payloads and
// pipeline failures both answer 200 so the gateway does not redeliver;
// only malformed JSON gets a 4xx.
type WhatsAppHandler struct {
	dispatcher *flows.Dispatcher
	delivery   interfaces.DeliveryEngine
	dedup      *dedup.Service
	events     interfaces.EventPublisher
	logger     arbor.ILogger
}

// NewWhatsAppHandler creates a WhatsApp webhook handler
func NewWhatsAppHandler(
	dispatcher *flows.Dispatcher,
	delivery interfaces.DeliveryEngine,
	dedupService *dedup.Service,
	events interfaces.EventPublisher,
	logger arbor.ILogger,
) *WhatsAppHandler {
	return &WhatsAppHandler{
		dispatcher: dispatcher,
		delivery:   delivery,
		dedup:      dedupService,
		events:     events,
		logger:     logger,
	}
}

// HandleWebhook processes one WAHA event
func (h *WhatsAppHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var webhook wahaWebhook
	if err := json.NewDecoder(r.Body).Decode(&webhook); err != nil {
		h.logger.Warn().Err(err).Msg("Rejecting malformed WhatsApp webhook")
		WriteError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if reason := h.filterReason(&webhook); reason != "" {
		WriteIgnored(w, reason)
		return
	}

	if h.dedup.IsDuplicate(r.Context(), "whatsapp", webhook.Payload.ID) {
		h.logger.Debug().Str("message_id", webhook.Payload.ID).Msg("Dropping duplicate WhatsApp message")
		WriteIgnored(w, "duplicate")
		return
	}

	msg := h.normalize(&webhook)
	correlationID := common.NewCorrelationID()

	h.publish(models.PipelineEvent{
		CorrelationID: correlationID,
		Kind:          models.EventMessageReceived,
		Provider:      msg.Provider,
		UserID:        msg.UserID,
	})

	mode := deliveryModeFor(msg)
	result, err := h.dispatcher.Dispatch(r.Context(), flows.Request{
		Message:          msg,
		To:               webhook.Payload.From,
		Mode:             mode,
		ExtractedContent: "",
		CorrelationID:    correlationID,
	})
	if err != nil {
		h.respondUndelivered(w, correlationID, msg, err)
		return
	}

	if result.Delivered {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "delivered": true})
		return
	}

	if _, err := h.delivery.Deliver(r.Context(), msg.Provider, webhook.Payload.From, result.Text, mode); err != nil {
		h.respondUndelivered(w, correlationID, msg, err)
		return
	}

	h.publish(models.PipelineEvent{
		CorrelationID: correlationID,
		Kind:          models.EventDeliveryDone,
		Provider:      msg.Provider,
		UserID:        msg.UserID,
		Flow:          result.Intent.String(),
	})
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "delivered": true})
}

// filterReason returns a non-empty reason for payloads that should never
// enter the pipeline.
func (h *WhatsAppHandler) filterReason(webhook *wahaWebhook) string {
	if webhook.Event != "message" && webhook.Event != "message.any" {
		return "unsupported_event"
	}
	if webhook.Payload.FromMe {
		return "own_message"
	}
	from := webhook.Payload.From
	if strings.Contains(from, "@newsletter") || strings.Contains(from, "@g.us") || strings.Contains(from, "@broadcast") {
		return "non_user_chat"
	}
	if strings.TrimSpace(webhook.Payload.Body) == "" && !webhook.Payload.HasMedia {
		return "empty_body"
	}
	return ""
}

func (h *WhatsAppHandler) normalize(webhook *wahaWebhook) models.NormalizedMessage {
	msg := models.NormalizedMessage{
		UserID:            "wa:" + webhook.Payload.From,
		Type:              models.MessageTypeText,
		Text:              webhook.Payload.Body,
		Provider:          "whatsapp",
		ProviderMessageID: webhook.Payload.ID,
	}

	if webhook.Payload.HasMedia && webhook.Payload.Media.URL != "" {
		msg.MediaURL = webhook.Payload.Media.URL
		msg.MimeType = webhook.Payload.Media.Mimetype
		switch {
		case strings.HasPrefix(msg.MimeType, "audio/"):
			msg.Type = models.MessageTypeAudio
		case strings.HasPrefix(msg.MimeType, "image/"):
			msg.Type = models.MessageTypeImage
		default:
			msg.Type = models.MessageTypeFile
		}
	}
	return msg
}

// respondUndelivered reports a pipeline failure without triggering a
// gateway retry: the channel already accepted the user's message, so a 5xx
// would only produce duplicate fallbacks later.
func (h *WhatsAppHandler) respondUndelivered(w http.ResponseWriter, correlationID string, msg models.NormalizedMessage, err error) {
	reason := "provider_error"
	if !errors.Is(err, interfaces.ErrDeliveryFailed) && !interfaces.IsAuthError(err) {
		reason = "intent_error"
	}

	h.logger.Error().
		Err(err).
		Str("user_id", msg.UserID).
		Str("reason", reason).
		Msg("WhatsApp pipeline failed")

	h.publish(models.PipelineEvent{
		CorrelationID: correlationID,
		Kind:          models.EventDeliveryFailed,
		Provider:      msg.Provider,
		UserID:        msg.UserID,
		Detail:        err.Error(),
	})

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"delivered": false,
		"reason":    reason,
	})
}

func (h *WhatsAppHandler) publish(event models.PipelineEvent) {
	if h.events == nil {
		return
	}
	event.Timestamp = time.Now()
	h.events.Publish(event)
}
