package admin

// Button labels. These double as command triggers: the reply keyboards send
// the label back as message text.
const (
	btnUsers           = "👥 Пользователи"
	btnAddUser         = "🏪 Добавить"
	btnEditUser        = "✏️ Изменить"
	btnDeleteUser      = "❌ Удалить"
	btnBroadcast       = "📢 Рассылка"
	btnSendByID        = "📩 Сообщение"
	btnLinksChannel    = "📋 Канал для ссылок"
	btnMessagesChannel = "💬 Канал для сообщений"
	btnEditWelcome     = "✏️ Изменить приветствие"
	btnStart           = "🚀 Старт"

	btnEditLogin    = "Изменить логин"
	btnEditPassword = "Изменить пароль"

	btnCancel = "❌ Отмена"
)

const (
	textAccessDenied    = "У вас нет доступа к этой команде."
	textActionCancelled = "Действие отменено."
	textChooseAction    = "Выберите действие:"
	textAdminFunctions  = "Функции администрирования:"
	textPressStart      = "Нажмите Старт для начала работы:"

	textEmptyUserList = "Список пользователей пуст."
	textEnterUserID   = "Пожалуйста, введите корректный числовой ID пользователя."

	textEnterNewLogin    = "Введите логин для нового пользователя:"
	textEnterNewPassword = "Теперь введите пароль для нового пользователя:"

	textEnterEditedLogin    = "Введите новый логин:"
	textEnterEditedPassword = "Введите новый пароль:"
	textBadEditAction       = "Неверный выбор. Выберите действие из предложенных кнопок."

	textBroadcastPrompt = "Отправьте любой контент (текст, фото, видео, аудио, документ), " +
		"который будет разослан всем авторизованным пользователям:"
	textBroadcastStarted = "⏳ Начинаю рассылку..."

	textChannelPromptLinks = "Введите ID канала для публикации ссылок.\n" +
		"Важно: бот должен быть администратором канала."
	textChannelPromptMessages = "Введите ID канала для публикации сообщений пользователей.\n" +
		"Важно: бот должен быть администратором канала."
	textChannelProbe      = "✅ Тестовое сообщение для проверки прав бота"
	textChannelSaveFailed = "Не удалось сохранить настройки канала"

	textWelcomeEmpty       = "Текст сообщения не может быть пустым."
	textWelcomeBadMarkup   = "Ошибка в HTML-разметке. Проверьте правильность тегов."
	textWelcomeUpdated     = "Приветственное сообщение успешно обновлено!"
	textWelcomeSaveFailed  = "Не удалось обновить приветственное сообщение"
	textWelcomeFallback    = "Добро пожаловать!"
	textWelcomeEditPreface = "Введите новый текст приветственного сообщения. Можно использовать HTML-разметку:\n" +
		"• Гиперссылка: <a href='https://example.com'>текст</a>\n" +
		"• Жирный текст: <b>текст</b>\n" +
		"• Курсив: <i>текст</i>\n\n" +
		"Или нажмите Отмена:"
)
