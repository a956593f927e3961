package tgui

import (
	tele "gopkg.in/telebot.v4"
)

// Reply is a small builder for reply keyboards (the persistent button rows
// under the input field).
type Reply struct {
	rm   *tele.ReplyMarkup
	rows []tele.Row
}

func NewReply() *Reply {
	return &Reply{rm: &tele.ReplyMarkup{ResizeKeyboard: true}}
}

// Row appends a new row of text buttons.
func (r *Reply) Row(labels ...string) *Reply {
	btns := make([]tele.Btn, 0, len(labels))
	for _, l := range labels {
		btns = append(btns, tele.Btn{Text: l})
	}
	r.rows = append(r.rows, r.rm.Row(btns...))
	r.rm.Reply(r.rows...)
	return r
}

// OneTime marks the keyboard as hidden after first use.
func (r *Reply) OneTime() *Reply {
	r.rm.OneTimeKeyboard = true
	return r
}

// Markup returns the underlying reply markup.
func (r *Reply) Markup() *tele.ReplyMarkup { return r.rm }

// Remove returns markup that removes any active reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
