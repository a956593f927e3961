package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"partnerbot/internal/storage"
	"partnerbot/internal/transport"
	logx "partnerbot/pkg/logx"
)

// listForSelection sends the compact user list plus a prompt, or reports an
// empty directory and stays idle. Returns false when the workflow must stop.
func (r *Router) listForSelection(ctx context.Context, msg transport.Message, prompt string, withTelegramID bool) bool {
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		r.log.Warn("user list failed", logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, textEmptyUserList, adminMenu())
		return false
	}
	if len(users) == 0 {
		r.errorNotice(ctx, msg.ChatID, textEmptyUserList, adminMenu())
		return false
	}
	r.reply(ctx, msg.ChatID, formatUserLines(users, withTelegramID)+"\n"+prompt, cancelMenu())
	return true
}

// parseUserID validates the numeric id input of a selection step. On bad
// input it re-prompts and the caller keeps the current step.
func (r *Router) parseUserID(ctx context.Context, msg transport.Message) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil {
		r.errorNotice(ctx, msg.ChatID, textEnterUserID, cancelMenu())
		return 0, false
	}
	return id, true
}

// ---- overview ----

func (r *Router) cmdUsers(ctx context.Context, msg transport.Message) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	users, err := r.store.ListUsers(ctx)
	if err != nil {
		r.log.Warn("user list failed", logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, textEmptyUserList, adminMenu())
		return
	}
	if len(users) == 0 {
		r.errorNotice(ctx, msg.ChatID, textEmptyUserList, adminMenu())
		return
	}

	report := formatUserReport(users) +
		"\nДля добавления нового пользователя используйте команду /adduser"
	r.reply(ctx, msg.ChatID, report, nil)
	r.reply(ctx, msg.ChatID, textAdminFunctions, adminMenu())
}

// ---- add user ----

func (r *Router) cmdAddUser(ctx context.Context, msg transport.Message) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	r.reply(ctx, msg.ChatID, textEnterNewLogin, cancelMenu())
	r.sessions.Set(msg.FromID, stepAddUsername{})
}

func (r *Router) stepAddUsername(ctx context.Context, msg transport.Message) {
	username := strings.TrimSpace(msg.Text)
	if username == "" {
		r.errorNotice(ctx, msg.ChatID, textEnterNewLogin, cancelMenu())
		return
	}
	if _, err := r.store.UserByUsername(ctx, username); err == nil {
		r.errorNotice(ctx, msg.ChatID,
			fmt.Sprintf("Пользователь с логином '%s' уже существует. Попробуйте другой логин.", username), nil)
		return
	}
	r.sessions.Set(msg.FromID, stepAddPassword{Username: username})
	r.reply(ctx, msg.ChatID, textEnterNewPassword, cancelMenu())
}

func (r *Router) stepAddPassword(ctx context.Context, msg transport.Message, st stepAddPassword) {
	password := strings.TrimSpace(msg.Text)

	if _, err := r.store.AddUser(ctx, st.Username, password); err != nil {
		r.log.Warn("add user failed", logx.String("username", st.Username), logx.Err(err))
		r.errorNotice(ctx, msg.ChatID,
			fmt.Sprintf("Не удалось создать пользователя. Возможно, логин '%s' уже занят.", st.Username), adminMenu())
	} else {
		r.successNotice(ctx, msg.ChatID,
			fmt.Sprintf("Пользователь '%s' успешно создан!\n\nЛогин: %s\nПароль: %s",
				st.Username, st.Username, password), nil)
		r.showAdminMenu(ctx, msg.ChatID)
	}
	r.sessions.Clear(msg.FromID)
}

// ---- edit user ----

func (r *Router) cmdEditUser(ctx context.Context, msg transport.Message) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	if !r.listForSelection(ctx, msg, "Введите ID пользователя для изменения:", false) {
		return
	}
	r.sessions.Set(msg.FromID, stepEditSelect{})
}

func (r *Router) stepEditSelect(ctx context.Context, msg transport.Message) {
	id, ok := r.parseUserID(ctx, msg)
	if !ok {
		return
	}
	user, err := r.store.UserByID(ctx, id)
	if err != nil {
		r.userNotFound(ctx, msg, id, err)
		return
	}
	r.sessions.Set(msg.FromID, stepEditAction{UserID: id})
	r.reply(ctx, msg.ChatID, formatUserInfo(user), userActionMenu())
}

func (r *Router) stepEditAction(ctx context.Context, msg transport.Message, st stepEditAction) {
	switch strings.TrimSpace(msg.Text) {
	case btnEditLogin:
		r.reply(ctx, msg.ChatID, textEnterEditedLogin, cancelMenu())
		r.sessions.Set(msg.FromID, stepEditNewUsername{UserID: st.UserID})
	case btnEditPassword:
		r.reply(ctx, msg.ChatID, textEnterEditedPassword, cancelMenu())
		r.sessions.Set(msg.FromID, stepEditNewPassword{UserID: st.UserID})
	default:
		r.errorNotice(ctx, msg.ChatID, textBadEditAction, userActionMenu())
	}
}

func (r *Router) stepEditNewUsername(ctx context.Context, msg transport.Message, st stepEditNewUsername) {
	newUsername := strings.TrimSpace(msg.Text)
	if newUsername == "" {
		r.errorNotice(ctx, msg.ChatID, textEnterEditedLogin, cancelMenu())
		return
	}

	// Renaming to a username owned by a different record is rejected.
	if existing, err := r.store.UserByUsername(ctx, newUsername); err == nil && existing.ID != st.UserID {
		r.errorNotice(ctx, msg.ChatID,
			fmt.Sprintf("Логин '%s' уже занят другим пользователем.", newUsername), adminMenu())
		r.sessions.Clear(msg.FromID)
		return
	}

	if err := r.store.UpdateUsername(ctx, st.UserID, newUsername); err != nil {
		r.log.Warn("rename failed", logx.Int64("user_id", st.UserID), logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, "Не удалось изменить логин пользователя", adminMenu())
	} else {
		r.successNotice(ctx, msg.ChatID,
			fmt.Sprintf("Логин пользователя (ID: %d) успешно изменен на '%s'", st.UserID, newUsername), adminMenu())
	}
	r.sessions.Clear(msg.FromID)
}

func (r *Router) stepEditNewPassword(ctx context.Context, msg transport.Message, st stepEditNewPassword) {
	newPassword := strings.TrimSpace(msg.Text)
	if newPassword == "" {
		r.errorNotice(ctx, msg.ChatID, textEnterEditedPassword, cancelMenu())
		return
	}

	if err := r.store.UpdatePassword(ctx, st.UserID, newPassword); err != nil {
		r.log.Warn("password change failed", logx.Int64("user_id", st.UserID), logx.Err(err))
		r.errorNotice(ctx, msg.ChatID, "Не удалось изменить пароль пользователя", adminMenu())
	} else {
		r.successNotice(ctx, msg.ChatID,
			fmt.Sprintf("Пароль пользователя (ID: %d) успешно изменен на '%s'", st.UserID, newPassword), adminMenu())
	}
	r.sessions.Clear(msg.FromID)
}

// ---- delete user ----

func (r *Router) cmdDeleteUser(ctx context.Context, msg transport.Message) {
	if r.denyNonAdmin(ctx, msg) {
		return
	}
	if !r.listForSelection(ctx, msg, "Введите ID пользователя для удаления:", false) {
		return
	}
	r.sessions.Set(msg.FromID, stepDeleteSelect{})
}

func (r *Router) stepDeleteSelect(ctx context.Context, msg transport.Message) {
	id, ok := r.parseUserID(ctx, msg)
	if !ok {
		return
	}
	user, err := r.store.UserByID(ctx, id)
	if err != nil {
		r.userNotFound(ctx, msg, id, err)
		return
	}

	if err := r.store.DeleteUser(ctx, id); err != nil {
		r.log.Warn("delete failed", logx.Int64("user_id", id), logx.Err(err))
		r.errorNotice(ctx, msg.ChatID,
			fmt.Sprintf("Не удалось удалить пользователя '%s' (ID: %d)", user.DisplayName(), id), adminMenu())
	} else {
		r.successNotice(ctx, msg.ChatID,
			fmt.Sprintf("Пользователь '%s' (ID: %d) успешно удален", user.DisplayName(), id), adminMenu())
	}
	r.sessions.Clear(msg.FromID)
}

// userNotFound aborts a selection workflow: unknown ids end the conversation
// and re-render the admin menu.
func (r *Router) userNotFound(ctx context.Context, msg transport.Message, id int64, err error) {
	if !errors.Is(err, storage.ErrNotFound) {
		r.log.Warn("user lookup failed", logx.Int64("user_id", id), logx.Err(err))
	}
	r.errorNotice(ctx, msg.ChatID, fmt.Sprintf("Пользователь с ID %d не найден.", id), adminMenu())
	r.sessions.Clear(msg.FromID)
}
