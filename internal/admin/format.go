package admin

import (
	"fmt"
	"strings"

	"partnerbot/internal/storage"
)

// formatUserReport renders the full directory listing shown by the admin
// overview, credentials included.
func formatUserReport(users []storage.User) string {
	if len(users) == 0 {
		return textEmptyUserList
	}

	var b strings.Builder
	b.WriteString("📊 Список всех пользователей:\n\n")
	for _, u := range users {
		fmt.Fprintf(&b, "ID: %d | %s\n", u.ID, u.DisplayName())
		fmt.Fprintf(&b, "   Логин: %s\n", u.Username)
		fmt.Fprintf(&b, "   Пароль: %s\n", u.Password)
		if u.Linked() {
			fmt.Fprintf(&b, "   Статус: ✅ Авторизован (TG ID: %d)\n", u.TelegramID)
		} else {
			b.WriteString("   Статус: ❌ Не авторизован\n")
		}
		link := u.Link
		if strings.TrimSpace(link) == "" {
			link = "—"
		}
		fmt.Fprintf(&b, "   Информация: %s\n\n", link)
	}
	return b.String()
}

// formatUserLines renders the compact per-user selection list used by the
// edit/delete/send workflows. withTelegramID additionally shows the linked
// account id.
func formatUserLines(users []storage.User, withTelegramID bool) string {
	var b strings.Builder
	b.WriteString("📋 Список пользователей:\n\n")
	for _, u := range users {
		fmt.Fprintf(&b, "👤 ID: %d | %s", u.ID, u.DisplayName())
		switch {
		case u.Linked() && withTelegramID:
			fmt.Fprintf(&b, " | ✅ Авторизован (TG ID: %d)", u.TelegramID)
		case u.Linked():
			b.WriteString(" | ✅ Авторизован")
		default:
			b.WriteString(" | ❌ Не авторизован")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatUserInfo renders the detail card shown when an edit target is chosen.
func formatUserInfo(u storage.User) string {
	telegramID := "Не привязан"
	if u.Linked() {
		telegramID = fmt.Sprintf("%d", u.TelegramID)
	}
	link := u.Link
	if strings.TrimSpace(link) == "" {
		link = "Не указана"
	}
	return fmt.Sprintf(
		"Выбран пользователь:\n"+
			"👤 Имя: %s\n"+
			"📝 Логин: %s\n"+
			"🆔 ID: %d\n"+
			"📱 Telegram ID: %s\n"+
			"🔗 Информация: %s\n\n"+
			"Что хотите изменить?",
		u.DisplayName(), u.Username, u.ID, telegramID, link)
}
