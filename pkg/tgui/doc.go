// Package tgui contains Telegram UI helpers: safe-HTML text builders and
// reply-keyboard construction for telebot.
package tgui
