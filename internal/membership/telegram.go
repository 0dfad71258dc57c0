package membership

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram implements Gateway against the Telegram Bot API: membership is
// checked with getChatMember and invites are join-request links for the
// configured community group.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	groupID int64
}

// NewTelegram creates a gateway for the given community group chat.
func NewTelegram(bot *tgbotapi.BotAPI, groupID int64) *Telegram {
	return &Telegram{bot: bot, groupID: groupID}
}

// IsMember reports whether the user belongs to the community group.
func (t *Telegram) IsMember(_ context.Context, userID int64) (bool, error) {
	member, err := t.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: t.groupID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}
	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	}
	return false, nil
}

// CreateInviteLink mints a join-request invite link for the group.
func (t *Telegram) CreateInviteLink(_ context.Context) (string, error) {
	resp, err := t.bot.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:         tgbotapi.ChatConfig{ChatID: t.groupID},
		CreatesJoinRequest: true,
	})
	if err != nil {
		return "", fmt.Errorf("create invite link: %w", err)
	}

	var link struct {
		InviteLink string `json:"invite_link"`
	}
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invite link: %w", err)
	}
	if link.InviteLink == "" {
		return "", fmt.Errorf("empty invite link in response")
	}
	return link.InviteLink, nil
}

// ApproveJoinRequest approves a pending join request for the group.
func (t *Telegram) ApproveJoinRequest(_ context.Context, userID int64) error {
	if _, err := t.bot.Request(tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: t.groupID},
		UserID:     userID,
	}); err != nil {
		return fmt.Errorf("approve join request: %w", err)
	}
	return nil
}
