package admin

import (
	"context"
	"errors"
	"strings"

	"partnerbot/internal/storage"
	"partnerbot/internal/transport"
	logx "partnerbot/pkg/logx"
)

// welcomeText returns the persisted welcome message, falling back to the
// configured default when none was stored yet.
func (r *Router) welcomeText(ctx context.Context) string {
	text, err := r.store.Welcome(ctx)
	if err == nil && strings.TrimSpace(text) != "" {
		return text
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.log.Warn("welcome lookup failed", logx.Err(err))
	}
	r.mu.RLock()
	def := r.welcomeDefault
	r.mu.RUnlock()
	if strings.TrimSpace(def) != "" {
		return def
	}
	return textWelcomeFallback
}

func (r *Router) cmdStart(ctx context.Context, msg transport.Message) {
	markup := startMenu()
	if r.isAdmin(msg.FromID) {
		r.replyHTML(ctx, msg.ChatID, r.welcomeText(ctx), adminMenu())
		return
	}
	if r.isLinkedUser(ctx, msg.FromID) {
		markup = mainMenu()
	}
	r.replyHTML(ctx, msg.ChatID, r.welcomeText(ctx), markup)
}

func (r *Router) cmdEditWelcome(ctx context.Context, msg transport.Message) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	r.replyHTML(ctx, msg.ChatID,
		"Текущее приветственное сообщение:\n\n"+r.welcomeText(ctx)+"\n\n"+textWelcomeEditPreface,
		cancelMenu())
	r.sessions.Set(msg.FromID, stepWelcomeText{})
}

func (r *Router) stepWelcomeText(ctx context.Context, msg transport.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// Re-prompt without losing the step.
		r.errorNotice(ctx, msg.ChatID, textWelcomeEmpty, cancelMenu())
		return
	}

	// Render-validate: push the candidate through the production renderer and
	// retract it. Malformed markup fails here and nothing is persisted.
	ref, err := r.sender.SendText(ctx, transport.ChatTarget{ChatID: msg.ChatID}, text,
		&transport.SendOptions{ParseMode: transport.ParseModeHTML})
	if err != nil {
		r.log.Warn("welcome render validation failed", logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, textWelcomeBadMarkup, adminMenu())
		r.showAdminMenu(ctx, msg.ChatID)
		r.sessions.Clear(msg.FromID)
		return
	}
	if err := r.sender.Delete(ctx, ref); err != nil {
		r.log.Warn("welcome probe delete failed", logx.Err(err))
	}

	if err := r.store.SetWelcome(ctx, text); err != nil {
		r.log.Warn("welcome save failed", logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, textWelcomeSaveFailed, adminMenu())
	} else {
		r.successNotice(ctx, msg.ChatID, textWelcomeUpdated, nil)
	}

	r.showAdminMenu(ctx, msg.ChatID)
	r.sessions.Clear(msg.FromID)
}
