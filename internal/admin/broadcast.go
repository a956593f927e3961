package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"partnerbot/internal/storage"
	"partnerbot/internal/transport"
	logx "partnerbot/pkg/logx"
	"partnerbot/pkg/tgui"
)

const brandHeader = "Сообщение от PARTNERS 🔗"

// brandText prepends the branding header to broadcast text/captions. The
// admin's text is passed through as-is so their own HTML markup renders for
// recipients; malformed markup surfaces as per-recipient send failures.
func brandText(text string) string {
	return string(tgui.B(brandHeader+":")) + "\n\n" + text
}

var errUnsupportedContent = errors.New("unsupported broadcast content")

// deliver sends one formatted copy of the admin-supplied content.
// Classification is mutually exclusive, first match wins: plain text, then
// each attachment kind. Stickers carry no caption, so no branding.
func (r *Router) deliver(ctx context.Context, to transport.ChatTarget, msg transport.Message) error {
	htmlOpt := &transport.SendOptions{ParseMode: transport.ParseModeHTML}

	if msg.Text != "" && msg.MediaGroupID == "" {
		_, err := r.sender.SendText(ctx, to, brandText(msg.Text), htmlOpt)
		return err
	}
	att := msg.Attachment
	if att == nil {
		return errUnsupportedContent
	}
	if att.Kind == transport.AttachmentSticker {
		_, err := r.sender.SendAttachment(ctx, to, *att, "", nil)
		return err
	}
	caption := string(tgui.B(brandHeader))
	if msg.Caption != "" {
		caption = brandText(msg.Caption)
	}
	_, err := r.sender.SendAttachment(ctx, to, *att, caption, htmlOpt)
	return err
}

// ---- broadcast to all ----

func (r *Router) cmdBroadcastAll(ctx context.Context, msg transport.Message) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	r.reply(ctx, msg.ChatID, textBroadcastPrompt, cancelMenu())
	r.sessions.Set(msg.FromID, stepBroadcastContent{})
}

func (r *Router) stepBroadcastContent(ctx context.Context, msg transport.Message) {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		r.log.Warn("user list failed", logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, textEmptyUserList, adminMenu())
		r.sessions.Clear(msg.FromID)
		return
	}

	r.mu.RLock()
	limiter := r.limiter
	progressEvery := r.progressEvery
	r.mu.RUnlock()

	runID := uuid.NewString()
	log := r.log.With(logx.String("run", runID))
	start := time.Now()
	log.Info("broadcast started", logx.Int("directory_size", len(users)))

	progress, err := r.sender.SendText(ctx, transport.ChatTarget{ChatID: msg.ChatID}, textBroadcastStarted, nil)
	if err != nil {
		log.Warn("progress notice failed", logx.Err(err))
	}

	sent, failed := 0, 0
	for _, u := range users {
		// Skip unlinked records and the sender's own account.
		if !u.Linked() || u.TelegramID == msg.FromID {
			continue
		}

		if err := r.deliver(ctx, transport.ChatTarget{ChatID: u.TelegramID}, msg); err != nil {
			failed++
			log.Warn("broadcast send failed",
				logx.String("username", u.Username),
				logx.Int64("user_id", u.ID),
				logx.Err(err))
		} else {
			sent++
			if sent%progressEvery == 0 && progress.MessageID != 0 {
				_ = r.sender.EditText(ctx, progress,
					fmt.Sprintf("⏳ Отправлено: %d сообщений...", sent), nil)
			}
		}

		// Fixed pacing after every send; rate-limit avoidance beats throughput.
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
	}

	log.Info("broadcast finished",
		logx.Int("sent", sent),
		logx.Int("failed", failed),
		logx.Duration("took", time.Since(start)))

	r.successNotice(ctx, msg.ChatID,
		fmt.Sprintf("Рассылка завершена!\n\n📊 Статистика:\n- Отправлено: %d\n- Не доставлено: %d", sent, failed), nil)
	r.showAdminMenu(ctx, msg.ChatID)
	r.sessions.Clear(msg.FromID)
}

// ---- single-recipient send ----

func (r *Router) cmdSendByID(ctx context.Context, msg transport.Message) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	if !r.listForSelection(ctx, msg, "Введите ID пользователя, которому хотите отправить сообщение:", true) {
		return
	}
	r.sessions.Set(msg.FromID, stepSendSelect{})
}

func (r *Router) stepSendSelect(ctx context.Context, msg transport.Message) {
	id, ok := r.parseUserID(ctx, msg)
	if !ok {
		return
	}
	user, err := r.store.UserByID(ctx, id)
	if err != nil {
		r.userNotFound(ctx, msg, id, err)
		return
	}
	if !user.Linked() {
		r.errorNotice(ctx, msg.ChatID,
			fmt.Sprintf("Пользователь %s (ID: %d) не авторизован в боте. Отправка сообщения невозможна.",
				user.Username, id), adminMenu())
		r.sessions.Clear(msg.FromID)
		return
	}

	r.sessions.Set(msg.FromID, stepSendContent{
		TargetID:         user.ID,
		TargetUsername:   user.Username,
		TargetTelegramID: user.TelegramID,
	})
	r.reply(ctx, msg.ChatID,
		fmt.Sprintf("Выбран пользователь: %s (ID: %d, TG ID: %d)\n"+
			"Отправьте любой контент (текст, фото, видео, аудио, документ), который нужно отправить пользователю:",
			user.Username, user.ID, user.TelegramID), cancelMenu())
}

func (r *Router) stepSendContent(ctx context.Context, msg transport.Message, st stepSendContent) {
	// Whole-message copy preserves the admin's formatting and attachments.
	to := transport.ChatTarget{ChatID: st.TargetTelegramID}
	from := transport.MessageRef{ChatID: msg.ChatID, MessageID: msg.ID}

	if err := r.sender.Copy(ctx, to, from); err != nil {
		r.log.Error("message copy failed",
			logx.Int64("target_id", st.TargetID),
			logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, fmt.Sprintf("Не удалось отправить сообщение: %v", err), nil)
	} else {
		r.successNotice(ctx, msg.ChatID,
			fmt.Sprintf("Сообщение успешно отправлено пользователю %s.", st.TargetUsername), nil)
	}
	r.sessions.Clear(msg.FromID)
}

// DigestCounts summarizes the directory for the scheduled admin digest.
func DigestCounts(users []storage.User) (total, linked int) {
	total = len(users)
	for _, u := range users {
		if u.Linked() {
			linked++
		}
	}
	return total, linked
}

// SendDigest delivers the directory summary to every admin chat.
func (r *Router) SendDigest(ctx context.Context) error {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	total, linked := DigestCounts(users)
	text := fmt.Sprintf("📊 Сводка по пользователям:\n- Всего: %d\n- Авторизовано: %d\n- Без авторизации: %d",
		total, linked, total-linked)

	r.mu.RLock()
	admins := make([]int64, 0, len(r.admins))
	for id := range r.admins {
		admins = append(admins, id)
	}
	limiter := r.limiter
	r.mu.RUnlock()

	var last error
	for _, id := range admins {
		if _, err := r.sender.SendText(ctx, transport.ChatTarget{ChatID: id}, text, nil); err != nil {
			r.log.Warn("digest send failed", logx.Int64("admin_id", id), logx.Err(err))
			last = err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}
	return last
}
