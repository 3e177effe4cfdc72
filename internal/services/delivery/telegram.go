package delivery

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
)

// botSender is the slice of tgbotapi.BotAPI the provider needs; tests swap
// in a recorder.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// FileURLResolver turns a Telegram file ID into a downloadable URL.
type FileURLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// TelegramProvider sends messages through the Telegram Bot API.
type TelegramProvider struct {
	bot    botSender
	logger arbor.ILogger
}

// NewTelegramProvider creates a Telegram provider. A missing bot token is
// not an error here; sends will fail with ErrMissingCredentials instead,
// so deployments without Telegram still start.
func NewTelegramProvider(config *common.TelegramConfig, logger arbor.ILogger) (*TelegramProvider, error) {
	if config.BotToken == "" {
		return &TelegramProvider{logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Info().Str("bot", bot.Self.UserName).Msg("Telegram bot authorized")
	return &TelegramProvider{bot: bot, logger: logger}, nil
}

var _ interfaces.MessageProvider = (*TelegramProvider)(nil)

// Name returns the provider identifier
func (p *TelegramProvider) Name() string {
	return "telegram"
}

// FileResolver exposes Telegram file URL resolution for webhook media
// handling, or nil when the bot is not configured.
func (p *TelegramProvider) FileResolver() FileURLResolver {
	if bot, ok := p.bot.(*tgbotapi.BotAPI); ok {
		return bot
	}
	return nil
}

// SendText sends a text message to a chat
func (p *TelegramProvider) SendText(ctx context.Context, to, text string) error {
	if p.bot == nil {
		return fmt.Errorf("telegram: %w", interfaces.ErrMissingCredentials)
	}

	chatID, err := parseChatID(to)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := p.bot.Send(msg); err != nil {
		return p.wrapSendError(err)
	}
	return nil
}

// SendAudio sends a voice message to a chat
func (p *TelegramProvider) SendAudio(ctx context.Context, to string, audio []byte, mimeType string) error {
	if p.bot == nil {
		return fmt.Errorf("telegram: %w", interfaces.ErrMissingCredentials)
	}

	chatID, err := parseChatID(to)
	if err != nil {
		return err
	}

	voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{
		Name:  "resposta.ogg",
		Bytes: audio,
	})
	if _, err := p.bot.Send(voice); err != nil {
		return p.wrapSendError(err)
	}
	return nil
}

func (p *TelegramProvider) wrapSendError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return &interfaces.ProviderAuthError{Provider: p.Name(), StatusCode: apiErr.Code}
	}
	return fmt.Errorf("telegram send failed: %w", err)
}

func parseChatID(to string) (int64, error) {
	var chatID int64
	if _, err := fmt.Sscanf(to, "%d", &chatID); err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}
	return chatID, nil
}
