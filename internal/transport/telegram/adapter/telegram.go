package adapter

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	"partnerbot/internal/transport"
	logx "partnerbot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

type Adapter struct {
	cfg Config
	log logx.Logger

	bot     *tele.Bot
	out     atomic.Value // stores (chan<- transport.Message)
	runMu   sync.Mutex
	running bool

	// droppedUpdates counts updates dropped because the consumer was slower
	// than the Telegram poll loop. Logged on Stop() to avoid per-update spam.
	droppedUpdates uint64
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	// Ensure atomic.Value is initialized with a stable dynamic type.
	var nilOut chan<- transport.Message
	a.out.Store(nilOut)
	a.registerHandlers()
	return a, nil
}

func (a *Adapter) registerHandlers() {
	// Every message endpoint funnels into the same normalizer; the FSM router
	// decides what to do with it. Start() may swap the output channel.
	endpoints := []string{
		tele.OnText, tele.OnPhoto, tele.OnVideo, tele.OnAudio,
		tele.OnDocument, tele.OnVoice, tele.OnSticker, tele.OnAnimation,
	}
	for _, ep := range endpoints {
		a.bot.Handle(ep, func(c tele.Context) error {
			m := c.Message()
			if m == nil || m.Sender == nil {
				return nil
			}
			a.forward(normalize(m))
			return nil
		})
	}
}

// normalize maps a telebot message to the transport form. Attachment kinds
// are mutually exclusive; first match wins.
func normalize(m *tele.Message) transport.Message {
	msg := transport.Message{
		ID:           m.ID,
		ChatID:       m.Chat.ID,
		FromID:       m.Sender.ID,
		FromUsername: m.Sender.Username,
		Text:         m.Text,
		Caption:      m.Caption,
		MediaGroupID: m.AlbumID,
	}
	switch {
	case m.Photo != nil:
		msg.Attachment = &transport.Attachment{Kind: transport.AttachmentPhoto, FileID: m.Photo.FileID}
	case m.Video != nil:
		msg.Attachment = &transport.Attachment{Kind: transport.AttachmentVideo, FileID: m.Video.FileID}
	case m.Audio != nil:
		msg.Attachment = &transport.Attachment{Kind: transport.AttachmentAudio, FileID: m.Audio.FileID}
	case m.Document != nil:
		msg.Attachment = &transport.Attachment{Kind: transport.AttachmentDocument, FileID: m.Document.FileID}
	case m.Voice != nil:
		msg.Attachment = &transport.Attachment{Kind: transport.AttachmentVoice, FileID: m.Voice.FileID}
	case m.Sticker != nil:
		msg.Attachment = &transport.Attachment{Kind: transport.AttachmentSticker, FileID: m.Sticker.FileID}
	case m.Animation != nil:
		msg.Attachment = &transport.Attachment{Kind: transport.AttachmentAnimation, FileID: m.Animation.FileID}
	}
	return msg
}

func (a *Adapter) forward(msg transport.Message) {
	v := a.out.Load()
	out, _ := v.(chan<- transport.Message)
	if out == nil {
		return
	}
	select {
	case out <- msg:
	default:
		atomic.AddUint64(&a.droppedUpdates, 1)
	}
}

func (a *Adapter) Start(ctx context.Context, out chan<- transport.Message) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.out.Store(out)
	a.runMu.Unlock()

	go func() {
		<-ctx.Done()
		a.bot.Stop()
	}()

	go func() {
		a.log.Info("polling started")
		// Start blocks until Stop() is called.
		a.bot.Start()
		a.log.Info("polling stopped")
	}()

	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	wasRunning := a.running
	a.running = false
	var nilOut chan<- transport.Message
	a.out.Store(nilOut)
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}
	if n := atomic.SwapUint64(&a.droppedUpdates, 0); n > 0 {
		a.log.Warn("incoming updates dropped (channel full)", logx.Uint64("count", n))
	}

	// telebot Stop is expected to be fast; run it async just in case and keep
	// shutdown snappy even if getUpdates long-poll is still waiting.
	done := make(chan struct{})
	go func() {
		a.bot.Stop()
		close(done)
	}()
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	select {
	case <-done:
	case <-time.After(grace):
		a.log.Warn("telegram stop timed out")
	}
	return nil
}

// chatRecipient adapts free-form channel identifiers ("@name") to telebot.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

func recipient(to transport.ChatTarget) tele.Recipient {
	if strings.TrimSpace(to.Username) != "" {
		return chatRecipient(strings.TrimSpace(to.Username))
	}
	return tele.ChatID(to.ChatID)
}

func sendOptions(opt *transport.SendOptions) *tele.SendOptions {
	if opt == nil {
		return &tele.SendOptions{}
	}
	so := &tele.SendOptions{
		ParseMode:             opt.ParseMode,
		DisableWebPagePreview: opt.DisablePreview,
	}
	if rm, ok := opt.ReplyMarkup.(*tele.ReplyMarkup); ok {
		so.ReplyMarkup = rm
	}
	return so
}

const telegramTextLimit = 4000

// splitText splits long messages into chunks that are safe to send to
// Telegram, preferring newline boundaries.
func splitText(s string, limit int) []string {
	if limit <= 0 {
		limit = telegramTextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	out := make([]string, 0, (len(rs)+limit-1)/limit)
	start := 0
	for start < len(rs) {
		end := start + limit
		if end > len(rs) {
			end = len(rs)
		}
		if end < len(rs) {
			cut := -1
			for i := end - 1; i > start; i-- {
				if rs[i] == '\n' {
					// Avoid extremely small chunks.
					if i-start >= limit/3 {
						cut = i + 1
						break
					}
				}
			}
			if cut != -1 {
				end = cut
			}
		}
		chunk := strings.TrimRight(string(rs[start:end]), "\n")
		out = append(out, chunk)
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

func (a *Adapter) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	chunks := splitText(text, telegramTextLimit)
	if len(chunks) == 0 {
		chunks = []string{""}
	}

	var first transport.MessageRef
	for i, chunk := range chunks {
		if ctx != nil {
			select {
			case <-ctx.Done():
				if first.MessageID != 0 {
					return first, ctx.Err()
				}
				return transport.MessageRef{}, ctx.Err()
			default:
			}
		}

		so := sendOptions(opt)
		// Attach markup only to the first chunk.
		if i > 0 {
			so.ReplyMarkup = nil
		}

		msg, err := a.bot.Send(recipient(to), chunk, so)
		if err != nil {
			if first.MessageID != 0 {
				return first, err
			}
			return transport.MessageRef{}, err
		}
		if i == 0 {
			first = transport.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}
		}
	}
	return first, nil
}

func (a *Adapter) SendAttachment(ctx context.Context, to transport.ChatTarget, att transport.Attachment, caption string, opt *transport.SendOptions) (transport.MessageRef, error) {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return transport.MessageRef{}, ctx.Err()
		default:
		}
	}

	file := tele.File{FileID: att.FileID}
	var what any
	switch att.Kind {
	case transport.AttachmentPhoto:
		what = &tele.Photo{File: file, Caption: caption}
	case transport.AttachmentVideo:
		what = &tele.Video{File: file, Caption: caption}
	case transport.AttachmentAudio:
		what = &tele.Audio{File: file, Caption: caption}
	case transport.AttachmentDocument:
		what = &tele.Document{File: file, Caption: caption}
	case transport.AttachmentVoice:
		what = &tele.Voice{File: file, Caption: caption}
	case transport.AttachmentSticker:
		// Stickers carry no caption.
		what = &tele.Sticker{File: file}
	case transport.AttachmentAnimation:
		what = &tele.Animation{File: file, Caption: caption}
	default:
		return transport.MessageRef{}, errors.New("unsupported attachment kind: " + string(att.Kind))
	}

	msg, err := a.bot.Send(recipient(to), what, sendOptions(opt))
	if err != nil {
		return transport.MessageRef{}, err
	}
	return transport.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}, nil
}

func stored(ref transport.MessageRef) tele.StoredMessage {
	return tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
}

func (a *Adapter) EditText(ctx context.Context, ref transport.MessageRef, text string, opt *transport.SendOptions) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	_, err := a.bot.Edit(stored(ref), text, sendOptions(opt))
	return err
}

func (a *Adapter) Delete(ctx context.Context, ref transport.MessageRef) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return a.bot.Delete(stored(ref))
}

func (a *Adapter) Copy(ctx context.Context, to transport.ChatTarget, from transport.MessageRef) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	_, err := a.bot.Copy(recipient(to), stored(from))
	return err
}
