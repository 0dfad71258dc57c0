package engine

import (
	"fmt"

	"github.com/ashureev/peerbot/internal/domain"
)

// User-facing texts.
const (
	msgWelcomeRegistration = "Привет! Пройди аутентификацию, чтобы присоединиться " +
		"к сообществу Школы 21 внутри СБЕРа. После аутентификации ты получишь " +
		"доступ к чату и информации о том, где работают пиры в СБЕРе."
	msgWelcomeSearchPeers = "Привет! Я бот по поиску пиров в Сбере. " +
		"Для начала работы тебе нужно предоставить свои персональные данные " +
		"для отображения в базе пиров и быть подписанным на канал комьюнити."
	msgSchool21Nick = "Укажи свой ник в Школе 21 (даже если ты уже не учишься). " +
		"Это подтвердит, что ты наш студент и можешь присоединиться к сообществу."
	msgSchool21NickUsed = "Этот никнейм уже используется в Школе 21. " +
		"Пожалуйста, введите другой никнейм."
	msgSberchatName = "Укажи имя пользователя в СберЧате - это часть твоего адреса " +
		"электронной почты до знака '@'. Например, для почты ivanov@sberbank.ru " +
		"имя будет ivanov."
	msgTelegramNick = "Укажи свой ник в Telegram, чтобы другие пиры могли легко " +
		"тебя найти. Это способ наладить полезные связи и быстрее решать вопросы вместе!"
	msgTelegramNickNotSet = "Похоже, у тебя не задан никнейм в Telegram. " +
		"Пожалуйста, введи его вручную."
	msgTeamName = "Укажи команду. Например: Lab SberPay NFC или Платежный счет."
	msgUserRole = "Роль в команде. Пожалуйста, введи роль строго как в Пульсе, " +
		"без указания уровня квалификации. Например: Senior golang разработчик " +
		"или Владелец продукта."
	msgRoleLevel        = "Выберите ваш уровень квалификации из предложенных вариантов."
	msgRoleLevelInvalid = "Пожалуйста, выберите уровень, нажав на кнопку."
	msgProject          = "Над чем ты работаешь? Коротко опиши свой вклад в продукт, " +
		"чтобы участники сообщества знали какой ты крутой!"
	msgAgreement = "Нажимая на кнопку ниже, ты соглашаешься с передачей и хранением " +
		"введенных данных."
	msgSelectValueToEdit = "Выберите значение, которое хотите изменить."
	msgUseButtons        = "Пожалуйста, используйте кнопки для выбора."
	msgInvalidEditChoice = "Неизвестное значение для редактирования. " +
		"Пожалуйста, выберите значение из приведенного списка."
	msgCongrats = "Добро пожаловать в наше сообщество!\n\n" +
		"Заходи в чат по кнопке \"Присоединиться к комьюнити\". " +
		"После этого тебе станет доступен поиск пиров."
	msgCompleteAuth = "Кажется, ты не состоишь в сообществе, пожалуйста, " +
		"пройди аутентификацию."
	msgUpdateError = "Произошла ошибка. Пожалуйста, попробуйте снова."
	msgStatusCheckError = "Произошла ошибка при проверке вашего статуса. " +
		"Пожалуйста, попробуйте позже."
	msgDataNotSaved = "Произошла ошибка при сохранении данных. " +
		"Пожалуйста, попробуйте подтвердить данные снова."
	msgDataSaved      = "Твои данные сохранены. УРА!"
	msgChooseCriteria = "Выберите критерий поиска."
	msgChooseTeam     = "Выбери, пожалуйста, интересующую тебя команду в Школе 21."
	msgIncorrectChoose = "Некорректный выбор. Попробуйте снова."
	msgNoNicknameSearchResults = "По заданным параметрам результатов нет. " +
		"Проверь, что данные введены корректно и попробуй еще раз."
	msgNoUserInfo             = "Информация о пользователе не найдена."
	msgCantBackToList         = "Не удалось вернуться к списку. Начните сначала."
	msgCantBackToPreviousStep = "Не удалось вернуться к предыдущему шагу. Начните сначала."
	msgEnterPeerNickname      = "Введи ник пользователя в ТГ, Сберчате или в Школе 21."
	msgLookingForWho          = "Кого ищем?"
)

// Button labels.
const (
	btnSkip             = "Пропустить"
	btnConfirm          = "Подтвердить"
	btnEdit             = "Изменить"
	btnContinue         = "Продолжить"
	btnConfirmJoin      = "Я присоединился"
	btnJoinCommunity    = "Присоединиться к комьюнити"
	btnSearchPeers      = "Поиск пиров"
	btnAuthenticate     = "Пройти аутентификацию"
	btnShowTgNickname   = "Показать ник в ТГ участникам сообщества"
	btnSearchByRole     = "По роли"
	btnSearchByTeam     = "По названию команды"
	btnSearchByNickname = "По никнейму"
	btnPrev             = "← Назад"
	btnNext             = "Далее →"
	btnBackToSelection  = "← Назад к выбору"
	btnBackToCriteria   = "Назад к критериям поиска"
	btnBackToList       = "← Назад к списку"

	btnFieldSchool21 = "Ник в Школе 21"
	btnFieldSberchat = "Имя в Сберчате"
	btnFieldTelegram = "Ник в Telegram"
	btnFieldTeam     = "Название команды"
	btnFieldRole     = "Ваша роль"
	btnFieldLevel    = "Ваш уровень"
	btnFieldProject  = "Над чем вы работаете"
)

// displayLevel is how the "any" sentinel reads in result headers.
const displayLevelAny = "Любой"

func msgJoinCommunity(link string) string {
	return fmt.Sprintf("Пожалуйста, присоединись к Коммьюнити: %s", link)
}

func msgCurrentFieldValue(label, current string) string {
	return fmt.Sprintf("Сейчас %s: %s. Введите новое значение.", label, current)
}

func msgNobodyWithTeam(team string) string {
	return fmt.Sprintf("С командой %s никого не нашлось:(", team)
}

func msgRoleWhatLevel(role string) string {
	return fmt.Sprintf("Роль: %s. А какой уровень?", role)
}

func msgNobodyWithRoleLevel(role, level string) string {
	if level == domain.LevelAny {
		level = displayLevelAny
	}
	return fmt.Sprintf("С ролью %s и уровнем %s никого не нашлось:(", role, level)
}

func msgPeersFromTeam(team string) string {
	return fmt.Sprintf("Пиры из команды %s:", team)
}

func msgPeersWithNickname(nickname string) string {
	return fmt.Sprintf("Пиры с никнеймом %s:", nickname)
}

func msgPeersWithRoleLevel(role, level string) string {
	if level == domain.LevelAny {
		level = displayLevelAny
	}
	return fmt.Sprintf("Пиры с ролью %s и уровнем %s:", role, level)
}
