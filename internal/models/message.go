package models

// MessageType identifies the payload kind of an inbound message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// DeliveryMode selects which payloads an outbound delivery carries.
type DeliveryMode string

const (
	// DeliveryModeText sends the answer as text only
	DeliveryModeText DeliveryMode = "text"

	// DeliveryModeTextAudio sends text first, then synthesized audio best-effort
	DeliveryModeTextAudio DeliveryMode = "text_audio"
)

// NormalizedMessage is the channel-independent shape every webhook handler
// produces before the pipeline runs. Handlers build it once; nothing mutates
// it afterwards.
type NormalizedMessage struct {
	// UserID is the channel-scoped sender identifier (WhatsApp JID, Telegram chat ID)
	UserID string `json:"user_id"`

	Type MessageType `json:"type"`

	// Text is the message body, empty for pure media messages
	Text string `json:"text"`

	// MediaURL points at downloadable media when the channel exposes one
	MediaURL string `json:"media_url,omitempty"`

	// MediaBytes holds inline media content when the channel delivers it directly
	MediaBytes []byte `json:"-"`

	MimeType string `json:"mime_type,omitempty"`

	// Provider names the originating channel: "whatsapp", "telegram", "console"
	Provider string `json:"provider"`

	// ProviderMessageID is the channel's own message identifier, used for dedup
	ProviderMessageID string `json:"provider_message_id,omitempty"`
}

// HasMedia reports whether the message carries any media payload.
func (m NormalizedMessage) HasMedia() bool {
	return m.Type != MessageTypeText || m.MediaURL != "" || len(m.MediaBytes) > 0
}
