package transport

import "context"

// AttachmentKind classifies the single media item carried by a message.
// Kinds are mutually exclusive; the adapter picks the first match.
type AttachmentKind string

const (
	AttachmentPhoto     AttachmentKind = "photo"
	AttachmentVideo     AttachmentKind = "video"
	AttachmentAudio     AttachmentKind = "audio"
	AttachmentDocument  AttachmentKind = "document"
	AttachmentVoice     AttachmentKind = "voice"
	AttachmentSticker   AttachmentKind = "sticker"
	AttachmentAnimation AttachmentKind = "animation"
)

// Attachment is a platform file reference (Telegram file_id).
type Attachment struct {
	Kind   AttachmentKind
	FileID string
}

// Message is one inbound message, normalized from the platform update.
type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromUsername string
	Text         string
	Caption      string
	Attachment   *Attachment
	MediaGroupID string
}

// ChatTarget addresses an outbound chat. Username (e.g. "@channel") wins over
// ChatID when set; channel identifiers entered by operators may be either.
type ChatTarget struct {
	ChatID   int64
	Username string
}

// MessageRef identifies a previously sent message (for edit/delete/copy).
type MessageRef struct {
	ChatID    int64
	MessageID int
}

const ParseModeHTML = "HTML"

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	ReplyMarkup    any // adapter-specific markup (Telegram: *telebot.ReplyMarkup)
}

// Sender is the outbound surface consumed by workflow handlers.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	SendAttachment(ctx context.Context, to ChatTarget, att Attachment, caption string, opt *SendOptions) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, text string, opt *SendOptions) error
	Delete(ctx context.Context, ref MessageRef) error
	// Copy re-sends an existing message verbatim (attachments and formatting
	// preserved) without a forward header.
	Copy(ctx context.Context, to ChatTarget, from MessageRef) error
}

// Adapter is a platform transport: it produces inbound messages and sends
// outbound ones.
type Adapter interface {
	Sender
	Start(ctx context.Context, out chan<- Message) error
	Stop(ctx context.Context) error
}
