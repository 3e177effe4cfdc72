package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
	"github.com/ternarybob/elo/internal/services/dedup"
	"github.com/ternarybob/elo/internal/services/delivery"
	"github.com/ternarybob/elo/internal/services/flows"
	"github.com/ternarybob/elo/internal/services/tts"
)

// startGreeting is sent in reply to the /start command.
const startGreeting = "Olá! Eu sou o ELO, seu assistente virtual. Estou aqui para te ajudar a entender documentos, leis e serviços públicos de um jeito simples e direto. Pode me mandar áudio, imagem ou texto que eu te respondo. Como posso te ajudar hoje?"

// TelegramHandler receives Telegram webhook updates. Requests without the
// configured secret token are rejected before any parsing side effects.
type TelegramHandler struct {
	secretToken string
	dispatcher  *flows.Dispatcher
	delivery    interfaces.DeliveryEngine
	dedup       *dedup.Service
	files       delivery.FileURLResolver
	transcriber interfaces.Transcriber
	events      interfaces.EventPublisher
	logger      arbor.ILogger
	httpClient  *http.Client
}

// NewTelegramHandler creates a Telegram webhook handler
func NewTelegramHandler(
	config *common.TelegramConfig,
	dispatcher *flows.Dispatcher,
	deliveryEngine interfaces.DeliveryEngine,
	dedupService *dedup.Service,
	files delivery.FileURLResolver,
	transcriber interfaces.Transcriber,
	events interfaces.EventPublisher,
	logger arbor.ILogger,
) *TelegramHandler {
	return &TelegramHandler{
		secretToken: config.SecretToken,
		dispatcher:  dispatcher,
		delivery:    deliveryEngine,
		dedup:       dedupService,
		files:       files,
		transcriber: transcriber,
		events:      events,
		logger:      logger,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// HandleWebhook processes one Telegram update
func (h *TelegramHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if h.secretToken != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.secretToken {
		h.logger.Warn().Msg("Rejecting Telegram webhook with bad secret token")
		WriteError(w, http.StatusUnauthorized, "invalid secret token")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn().Err(err).Msg("Rejecting malformed Telegram update")
		WriteError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if update.Message == nil {
		WriteIgnored(w, "no_message")
		return
	}

	if h.dedup.IsDuplicate(r.Context(), "telegram", strconv.Itoa(update.UpdateID)) {
		h.logger.Debug().Int("update_id", update.UpdateID).Msg("Dropping duplicate Telegram update")
		WriteIgnored(w, "duplicate")
		return
	}

	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)

	if update.Message.IsCommand() && update.Message.Command() == "start" {
		h.sendGreeting(w, r, chatID)
		return
	}

	msg := h.normalize(update.Message)
	if msg.Text == "" && !msg.HasMedia() {
		WriteIgnored(w, "empty_body")
		return
	}

	if msg.Type == models.MessageTypeAudio {
		transcript, ok := h.transcribeVoice(r.Context(), msg)
		if !ok {
			h.sendTranscriptFallback(w, r, chatID)
			return
		}
		msg.Text = transcript
	}

	correlationID := common.NewCorrelationID()
	h.publish(models.PipelineEvent{
		CorrelationID: correlationID,
		Kind:          models.EventMessageReceived,
		Provider:      msg.Provider,
		UserID:        msg.UserID,
	})

	mode := deliveryModeFor(msg)
	result, err := h.dispatcher.Dispatch(r.Context(), flows.Request{
		Message:       msg,
		To:            chatID,
		Mode:          mode,
		CorrelationID: correlationID,
	})
	if err != nil {
		h.respondUndelivered(w, correlationID, msg, err)
		return
	}

	if !result.Delivered {
		if _, err := h.delivery.Deliver(r.Context(), msg.Provider, chatID, result.Text, mode); err != nil {
			h.respondUndelivered(w, correlationID, msg, err)
			return
		}
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

func (h *TelegramHandler) sendGreeting(w http.ResponseWriter, r *http.Request, chatID string) {
	if _, err := h.delivery.Deliver(r.Context(), "telegram", chatID, startGreeting, models.DeliveryModeTextAudio); err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("Failed to deliver greeting")
		WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "delivered": false, "reason": "provider_error"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "delivered": true})
}

// normalize maps a Telegram message onto the channel-independent shape.
// Photos use the largest available size; captions carry the text for media
// messages.
func (h *TelegramHandler) normalize(message *tgbotapi.Message) models.NormalizedMessage {
	msg := models.NormalizedMessage{
		UserID:            "tg:" + strconv.FormatInt(message.Chat.ID, 10),
		Type:              models.MessageTypeText,
		Text:              message.Text,
		Provider:          "telegram",
		ProviderMessageID: strconv.Itoa(message.MessageID),
	}

	if msg.Text == "" && message.Caption != "" {
		msg.Text = message.Caption
	}

	switch {
	case len(message.Photo) > 0:
		msg.Type = models.MessageTypeImage
		msg.MediaURL = h.fileURL(message.Photo[len(message.Photo)-1].FileID)
	case message.Voice != nil:
		msg.Type = models.MessageTypeAudio
		msg.MimeType = message.Voice.MimeType
		msg.MediaURL = h.fileURL(message.Voice.FileID)
	case message.Audio != nil:
		msg.Type = models.MessageTypeAudio
		msg.MimeType = message.Audio.MimeType
		msg.MediaURL = h.fileURL(message.Audio.FileID)
	case message.Document != nil:
		msg.Type = models.MessageTypeFile
		msg.MimeType = message.Document.MimeType
		msg.MediaURL = h.fileURL(message.Document.FileID)
	}
	return msg
}

// transcribeVoice downloads a voice note and runs it through the
// transcriber. A false result means the audio could not be understood and
// the user gets the fixed transcript fallback instead of an answer.
func (h *TelegramHandler) transcribeVoice(ctx context.Context, msg models.NormalizedMessage) (string, bool) {
	if h.transcriber == nil || !h.transcriber.Enabled() || msg.MediaURL == "" {
		return "", false
	}

	audio, err := h.downloadMedia(ctx, msg.MediaURL)
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", msg.UserID).Msg("Failed to download Telegram voice note")
		return "", false
	}

	transcript, err := h.transcriber.Transcribe(ctx, audio, msg.MimeType)
	if err != nil || transcript == "" {
		h.logger.Warn().Err(err).Str("user_id", msg.UserID).Msg("Failed to transcribe Telegram voice note")
		return "", false
	}
	return transcript, true
}

func (h *TelegramHandler) downloadMedia(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (h *TelegramHandler) sendTranscriptFallback(w http.ResponseWriter, r *http.Request, chatID string) {
	if _, err := h.delivery.Deliver(r.Context(), "telegram", chatID, tts.FallbackTranscriptMessage, models.DeliveryModeTextAudio); err != nil {
		h.logger.Error().Err(err).Str("chat_id", chatID).Msg("Failed to deliver transcript fallback")
		WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "delivered": false, "reason": "provider_error"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "delivered": true})
}

func (h *TelegramHandler) fileURL(fileID string) string {
	if h.files == nil {
		return ""
	}
	url, err := h.files.GetFileDirectURL(fileID)
	if err != nil {
		h.logger.Warn().Err(err).Str("file_id", fileID).Msg("Failed to resolve Telegram file URL")
		return ""
	}
	return url
}

func (h *TelegramHandler) respondUndelivered(w http.ResponseWriter, correlationID string, msg models.NormalizedMessage, err error) {
	h.logger.Error().
		Err(err).
		Str("user_id", msg.UserID).
		Msg("Telegram pipeline failed")

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
		"reason":    "provider_error",
	})
}

func (h *TelegramHandler) publish(event models.PipelineEvent) {
	if h.events == nil {
		return
	}
	event.Timestamp = time.Now()
	h.events.Publish(event)
}
