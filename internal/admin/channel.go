package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"partnerbot/internal/storage"
	"partnerbot/internal/transport"
	logx "partnerbot/pkg/logx"
)

// parseChatTarget turns an operator-entered channel identifier into a send
// target. Numeric input (including "-100…" ids) addresses by chat id,
// anything else is passed through as a username ("@channel").
func parseChatTarget(ident string) transport.ChatTarget {
	ident = strings.TrimSpace(ident)
	if id, err := strconv.ParseInt(ident, 10, 64); err == nil {
		return transport.ChatTarget{ChatID: id}
	}
	return transport.ChatTarget{Username: ident}
}

func (r *Router) cmdSetChannel(ctx context.Context, msg transport.Message, kind storage.ChannelKind) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	prompt := textChannelPromptLinks
	if kind == storage.ChannelMessages {
		prompt = textChannelPromptMessages
	}
	r.reply(ctx, msg.ChatID, prompt, cancelMenu())
	r.sessions.Set(msg.FromID, stepChannelID{Kind: kind})
}

func (r *Router) stepChannelID(ctx context.Context, msg transport.Message, st stepChannelID) {
	ident := strings.TrimSpace(msg.Text)
	if ident == "" {
		prompt := textChannelPromptLinks
		if st.Kind == storage.ChannelMessages {
			prompt = textChannelPromptMessages
		}
		r.errorNotice(ctx, msg.ChatID, prompt, cancelMenu())
		return
	}

	// Probe: a throwaway message proves the bot can post there; it is deleted
	// right away. Nothing is persisted unless the whole probe succeeds.
	if err := r.probeChannel(ctx, parseChatTarget(ident)); err != nil {
		r.log.Warn("channel probe failed",
			logx.String("kind", string(st.Kind)),
			logx.String("channel", ident),
			logx.Err(err))
		r.errorNotice(ctx, msg.ChatID,
			"Не удалось установить канал. Убедитесь, что:\n"+
				"1. ID канала указан верно\n"+
				"2. Бот добавлен в канал\n"+
				"3. Бот является администратором канала\n\n"+
				fmt.Sprintf("Ошибка: %v", err), nil)
		r.showAdminMenu(ctx, msg.ChatID)
		r.sessions.Clear(msg.FromID)
		return
	}

	if err := r.store.SetChannel(ctx, st.Kind, ident); err != nil {
		r.log.Warn("channel save failed", logx.String("kind", string(st.Kind)), logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, textChannelSaveFailed, nil)
	} else {
		kindText := "ссылок"
		if st.Kind == storage.ChannelMessages {
			kindText = "сообщений"
		}
		r.successNotice(ctx, msg.ChatID, fmt.Sprintf("Канал для %s успешно установлен!", kindText), nil)
	}

	r.showAdminMenu(ctx, msg.ChatID)
	r.sessions.Clear(msg.FromID)
}

func (r *Router) probeChannel(ctx context.Context, to transport.ChatTarget) error {
	ref, err := r.sender.SendText(ctx, to, textChannelProbe, nil)
	if err != nil {
		return err
	}
	return r.sender.Delete(ctx, ref)
}
