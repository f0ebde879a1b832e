package constants

// Callback data tokens carried by the main menu buttons. The workout ids are
// bare digits so existing keyboards keep working.
const (
	CallbackWorkout1      = "1"
	CallbackWorkout2      = "2"
	CallbackWorkout3      = "3"
	CallbackLogWeight     = "log_weight"
	CallbackViewHistory   = "view_weight_history"
	CallbackProfile       = "profile"
	CommandStart          = "start"
	CommandStatus         = "status"
	CommandDelete         = "delete"
	CommandHelp           = "help"
	PlaceholderLastName   = "Не указана"
	PlaceholderNotSet     = "Не указан"
	WeightUnit            = "кг"
	LabelWorkout1         = "Тренировка 1"
	LabelWorkout2         = "Тренировка 2"
	LabelWorkout3         = "Тренировка 3"
	LabelLogWeight        = "Записать вес"
	LabelViewHistory      = "Посмотреть историю веса"
	LabelProfile          = "Профиль"
	MsgWelcome            = "Добро пожаловать в фитнес-бот. Пожалуйста, выберите интересующий вас раздел:"
	MsgRegisteredNew      = "Вы успешно зарегистрированы! Привет, %s!"
	MsgRegisteredAgain    = "С возвращением, %s!"
	MsgNotRegistered      = "Вы не зарегистрированы. Пожалуйста, начните с команды /start для регистрации."
	MsgProfileNotFound    = "Ваша регистрация не найдена. Пожалуйста, начните с команды /start для регистрации."
	MsgDeleted            = "Ваш аккаунт и данные успешно удалены!"
	MsgAskWeight          = "Пожалуйста, отправьте свой текущий вес в килограммах."
	MsgWeightSaved        = "Вес записан!"
	MsgWeightInvalid      = "Пожалуйста, отправьте числовое значение веса."
	MsgHistoryHeader      = "История веса:"
	MsgHistoryEmpty       = "История веса пуста."
	MsgPressLogWeight     = "Чтобы записать вес, нажмите «Записать вес» в меню /start."
	MsgUnknownCommand     = "Неизвестная команда. Используйте /start, /status или /delete."
	MsgUnknownButton      = "Эта кнопка больше не поддерживается. Откройте меню командой /start."
	MsgInternalError      = "Что-то пошло не так. Попробуйте ещё раз позже."
	MsgWorkoutVideo       = "Видео для тренировки %s: [Ссылка на видео]"
	MsgStatusTemplate     = "Вы зарегистрированы!\nИмя: %s\nФамилия: %s\nИмя пользователя: %s\nТекущий вес: %s кг"
	MsgProfileTemplate    = "Ваш профиль:\n\nИмя: %s\nФамилия: %s\nИмя пользователя: %s\nТекущий вес: %s кг\n\n"
	MsgCommandMenu        = "Вы можете использовать следующие команды:\n/status - Проверить регистрацию\n/delete - Удалить аккаунт и данные\n"
)
