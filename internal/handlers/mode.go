package handlers

import (
	"strings"

	"github.com/ternarybob/elo/internal/models"
)

var audioKeywords = []string{
	"audio",
	"áudio",
	"voz",
	"falar",
	"ouvir",
	"fala",
	"explique falando",
}

// deliveryModeFor picks text_audio when the user asked to hear the answer,
// or when the question itself arrived as voice.
func deliveryModeFor(msg models.NormalizedMessage) models.DeliveryMode {
	if msg.Type == models.MessageTypeAudio {
		return models.DeliveryModeTextAudio
	}

	lower := strings.ToLower(msg.Text)
	for _, keyword := range audioKeywords {
		if strings.Contains(lower, keyword) {
			return models.DeliveryModeTextAudio
		}
	}
	return models.DeliveryModeText
}
