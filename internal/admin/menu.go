package admin

import (
	tele "gopkg.in/telebot.v4"

	"partnerbot/pkg/tgui"
)

func adminMenu() *tele.ReplyMarkup {
	return tgui.NewReply().
		Row(btnUsers, btnAddUser).
		Row(btnEditUser, btnDeleteUser).
		Row(btnBroadcast, btnSendByID).
		Row(btnLinksChannel, btnMessagesChannel).
		Row(btnEditWelcome).
		Markup()
}

func cancelMenu() *tele.ReplyMarkup {
	return tgui.NewReply().Row(btnCancel).Markup()
}

func userActionMenu() *tele.ReplyMarkup {
	return tgui.NewReply().
		Row(btnEditLogin, btnEditPassword).
		Row(btnCancel).
		Markup()
}

func startMenu() *tele.ReplyMarkup {
	return tgui.NewReply().Row(btnStart).OneTime().Markup()
}

func mainMenu() *tele.ReplyMarkup {
	return tgui.NewReply().Row(btnStart).Markup()
}
