package admin

import (
	"strings"
	"testing"

	"partnerbot/internal/storage"
)

func TestFormatUserReport(t *testing.T) {
	users := []storage.User{
		{ID: 1, Username: "bob", Password: "pw1", TelegramID: 501, FullName: "Боб"},
		{ID: 2, Username: "alice", Password: "pw2"},
	}

	got := formatUserReport(users)

	if !strings.Contains(got, "Боб (@bob)") {
		t.Fatalf("full name display missing: %q", got)
	}
	if !strings.Contains(got, "Пароль: pw1") || !strings.Contains(got, "Пароль: pw2") {
		t.Fatalf("credentials missing from report: %q", got)
	}
	if !strings.Contains(got, "✅ Авторизован (TG ID: 501)") {
		t.Fatalf("linked status missing: %q", got)
	}
	if !strings.Contains(got, "❌ Не авторизован") {
		t.Fatalf("unlinked status missing: %q", got)
	}
}

func TestFormatUserReportEmpty(t *testing.T) {
	if got := formatUserReport(nil); got != textEmptyUserList {
		t.Fatalf("empty directory must render the empty notice, got %q", got)
	}
}

func TestFormatUserLines(t *testing.T) {
	users := []storage.User{
		{ID: 1, Username: "bob", TelegramID: 501},
		{ID: 2, Username: "alice"},
	}

	withID := formatUserLines(users, true)
	if !strings.Contains(withID, "👤 ID: 1 | bob | ✅ Авторизован (TG ID: 501)") {
		t.Fatalf("linked line with telegram id missing: %q", withID)
	}

	plain := formatUserLines(users, false)
	if strings.Contains(plain, "TG ID") {
		t.Fatalf("telegram id must be hidden when not requested: %q", plain)
	}
	if !strings.Contains(plain, "👤 ID: 2 | alice | ❌ Не авторизован") {
		t.Fatalf("unlinked line missing: %q", plain)
	}
}

func TestFormatUserInfo(t *testing.T) {
	got := formatUserInfo(storage.User{ID: 7, Username: "bob"})
	if !strings.Contains(got, "📱 Telegram ID: Не привязан") {
		t.Fatalf("unlinked card must say so: %q", got)
	}
	if !strings.Contains(got, "Что хотите изменить?") {
		t.Fatalf("action prompt missing: %q", got)
	}
}

func TestBrandText(t *testing.T) {
	got := brandText("скидка <b>-50%</b>")
	if !strings.HasPrefix(got, "<b>"+brandHeader+":</b>\n\n") {
		t.Fatalf("branding header missing: %q", got)
	}
	if !strings.HasSuffix(got, "скидка <b>-50%</b>") {
		t.Fatalf("admin markup must pass through unescaped: %q", got)
	}
}
