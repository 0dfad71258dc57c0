// Package validate holds the field validators for registration input.
// Each validator is a pure function: it takes the raw text a user typed and
// returns the normalized value, or a domain.ValidationError whose message is
// shown to the user verbatim.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ashureev/peerbot/internal/domain"
)

// Rejection reasons, shown to the user verbatim.
const (
	reasonSchool21Nick = "Ник может содержать только латинские буквы и должен быть от 4 до 16 символов."
	reasonSberNick     = "Укажи имя пользователя в Сберчате — это часть твоего адреса электронной почты до знака '@'. Он может содержать только буквы и цифры."
	reasonTgNickLength = "Ник может быть длиной не более 32 символов."
	reasonTgNickFormat = "Ник может содержать только буквы, цифры, символы подчеркивания и @."
	reasonTeamLength   = "Название команды не может превышать 256 символов."
	reasonTeamFormat   = "Название команды может содержать только буквы, цифры и пробелы."
	reasonRoleLength   = "Название вашей роли не может превышать 128 символов."
	reasonRoleFormat   = "Название вашей роли может содержать только буквы и пробелы."
	reasonProjectLong  = "Описание проекта не может превышать 1024 символа."
)

var (
	school21Pattern = regexp.MustCompile(`^[A-Za-z]{4,16}$`)
	sberPattern     = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9]+$`)
	telegramPattern = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9_@]+$`)
	teamPattern     = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9 ]+$`)
	rolePattern     = regexp.MustCompile(`^[A-Za-zА-Яа-я ]+$`)
)

// School21Nick validates a School 21 nickname: 4-16 ASCII letters.
func School21Nick(raw string) (string, error) {
	nick := strings.TrimSpace(raw)
	if !school21Pattern.MatchString(nick) {
		return "", domain.NewValidationError(reasonSchool21Nick)
	}
	return nick, nil
}

// SberchatNick validates a SberChat user name: 1-256 letters or digits.
func SberchatNick(raw string) (string, error) {
	nick := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(nick); n < 1 || n > 256 {
		return "", domain.NewValidationError(reasonSberNick)
	}
	if !sberPattern.MatchString(nick) {
		return "", domain.NewValidationError(reasonSberNick)
	}
	return nick, nil
}

// TelegramNick validates a Telegram handle. A leading @ is stripped before
// the checks and the normalized value is returned without it.
func TelegramNick(raw string) (string, error) {
	nick := strings.TrimSpace(raw)
	if utf8.RuneCountInString(nick) > 32 {
		return "", domain.NewValidationError(reasonTgNickLength)
	}
	nick = strings.TrimPrefix(nick, "@")
	if nick == "" || !telegramPattern.MatchString(nick) {
		return "", domain.NewValidationError(reasonTgNickFormat)
	}
	return nick, nil
}

// TeamName validates a team name: up to 256 letters, digits and spaces.
func TeamName(raw string) (string, error) {
	team := strings.TrimSpace(raw)
	if utf8.RuneCountInString(team) > 256 {
		return "", domain.NewValidationError(reasonTeamLength)
	}
	if !teamPattern.MatchString(team) {
		return "", domain.NewValidationError(reasonTeamFormat)
	}
	return team, nil
}

// RoleName validates a role name: up to 128 letters and spaces.
func RoleName(raw string) (string, error) {
	role := strings.TrimSpace(raw)
	if utf8.RuneCountInString(role) > 128 {
		return "", domain.NewValidationError(reasonRoleLength)
	}
	if !rolePattern.MatchString(role) {
		return "", domain.NewValidationError(reasonRoleFormat)
	}
	return role, nil
}

// ProjectDescription validates the free-text project description.
func ProjectDescription(raw string) (string, error) {
	project := strings.TrimSpace(raw)
	if utf8.RuneCountInString(project) > 1024 {
		return "", domain.NewValidationError(reasonProjectLong)
	}
	return project, nil
}
