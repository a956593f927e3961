package adapter

import (
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"partnerbot/internal/transport"
)

func TestSplitTextShort(t *testing.T) {
	got := splitText("hello", 10)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("short text must pass through, got %q", got)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	text := strings.Repeat("строка текста\n", 40)
	chunks := splitText(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk %d over limit: %d runes", i, len([]rune(c)))
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk %d has dangling newlines: %q", i, c)
		}
		// Newline-preferred splits must not cut a line in half.
		for _, line := range strings.Split(c, "\n") {
			if line != "строка текста" {
				t.Fatalf("chunk %d broke a line: %q", i, line)
			}
		}
	}
}

func TestSplitTextHardCut(t *testing.T) {
	text := strings.Repeat("ж", 250)
	chunks := splitText(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		total += len([]rune(c))
	}
	if total != 250 {
		t.Fatalf("runes lost in split: %d", total)
	}
}

func TestNormalizeClassifiesFirstMatch(t *testing.T) {
	m := &tele.Message{
		ID:      7,
		Chat:    &tele.Chat{ID: 42},
		Sender:  &tele.User{ID: 9, Username: "bob"},
		Caption: "подпись",
		Photo:   &tele.Photo{File: tele.File{FileID: "ph1"}},
		// A document alongside a photo must lose: kinds are exclusive.
		Document: &tele.Document{File: tele.File{FileID: "doc1"}},
	}

	got := normalize(m)
	if got.ID != 7 || got.ChatID != 42 || got.FromID != 9 || got.FromUsername != "bob" {
		t.Fatalf("envelope fields wrong: %+v", got)
	}
	if got.Attachment == nil || got.Attachment.Kind != transport.AttachmentPhoto || got.Attachment.FileID != "ph1" {
		t.Fatalf("expected photo attachment, got %+v", got.Attachment)
	}
	if got.Caption != "подпись" {
		t.Fatalf("caption lost: %q", got.Caption)
	}
}

func TestNormalizePlainText(t *testing.T) {
	m := &tele.Message{
		ID:     1,
		Chat:   &tele.Chat{ID: 1},
		Sender: &tele.User{ID: 1},
		Text:   "привет",
	}
	got := normalize(m)
	if got.Attachment != nil {
		t.Fatalf("plain text must carry no attachment")
	}
	if got.Text != "привет" {
		t.Fatalf("text lost: %q", got.Text)
	}
}

func TestRecipientPrefersUsername(t *testing.T) {
	r := recipient(transport.ChatTarget{ChatID: 5, Username: "@chan"})
	if r.Recipient() != "@chan" {
		t.Fatalf("username must win, got %q", r.Recipient())
	}
	r = recipient(transport.ChatTarget{ChatID: -100123})
	if r.Recipient() != "-100123" {
		t.Fatalf("chat id fallback broken, got %q", r.Recipient())
	}
}

func TestSendOptionsMapping(t *testing.T) {
	rm := &tele.ReplyMarkup{ResizeKeyboard: true}
	so := sendOptions(&transport.SendOptions{
		ParseMode:      transport.ParseModeHTML,
		DisablePreview: true,
		ReplyMarkup:    rm,
	})
	if so.ParseMode != tele.ModeHTML {
		t.Fatalf("parse mode: %q", so.ParseMode)
	}
	if !so.DisableWebPagePreview {
		t.Fatalf("preview flag lost")
	}
	if so.ReplyMarkup != rm {
		t.Fatalf("markup lost")
	}

	if so := sendOptions(nil); so == nil {
		t.Fatalf("nil options must map to defaults")
	}
}
