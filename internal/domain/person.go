// Package domain contains core domain types for the peer-search bot.
package domain

import (
	"time"
)

// Person represents a registered community member.
type Person struct {
	ID               int64     `json:"id"`
	TelegramID       int64     `json:"telegram_id"`
	FullName         string    `json:"full_name,omitempty"`
	Role             string    `json:"role"`
	Level            string    `json:"level"`
	Team             string    `json:"team"`
	Project          string    `json:"project"`
	TelegramNick     string    `json:"telegram_nick"`
	SberchatNick     string    `json:"sberchat_nick"`
	School21Nick     string    `json:"school21_nick"`
	RegistrationDate time.Time `json:"registration_date"`
	InviteSent       bool      `json:"invite_sent"`
	IsMember         bool      `json:"is_member"`
}

// LevelAny is the sentinel level meaning "search across all levels".
const LevelAny = "Неважно"

// ProjectNotSet is the sentinel stored when a user skips the project step.
const ProjectNotSet = "Не указано"
