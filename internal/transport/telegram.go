// Package transport connects the conversation engine to the outside world:
// the Telegram Bot API in production and a websocket console in development.
package transport

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ashureev/peerbot/internal/engine"
	"github.com/ashureev/peerbot/internal/store"
)

// Approver approves pending community join requests.
type Approver interface {
	ApproveJoinRequest(ctx context.Context, userID int64) error
}

// TelegramBot drives the engine from Telegram long-poll updates.
//
// Updates are processed sequentially on one goroutine, which satisfies the
// engine's per-user serialization requirement.
type TelegramBot struct {
	bot      *tgbotapi.BotAPI
	engine   *engine.Engine
	repo     store.Repository
	approver Approver
	groupID  int64
	logger   *slog.Logger
}

// NewTelegramBot creates the long-poll adapter. approver may be nil when
// join requests should be left for a human admin.
func NewTelegramBot(bot *tgbotapi.BotAPI, eng *engine.Engine, repo store.Repository, approver Approver, groupID int64, logger *slog.Logger) *TelegramBot {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramBot{
		bot:      bot,
		engine:   eng,
		repo:     repo,
		approver: approver,
		groupID:  groupID,
		logger:   logger,
	}
}

// Run polls Telegram for updates until ctx is cancelled.
func (t *TelegramBot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	cfg.AllowedUpdates = []string{"message", "callback_query", "chat_join_request"}

	updates := t.bot.GetUpdatesChan(cfg)
	t.logger.Info("telegram long-poll started", "bot", t.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *TelegramBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.ChatJoinRequest != nil:
		t.handleJoinRequest(ctx, update.ChatJoinRequest)
	case update.CallbackQuery != nil:
		t.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil && update.Message.Chat.IsPrivate():
		t.handleMessage(ctx, update.Message)
	}
}

// handleJoinRequest marks a registered requester as a member and approves
// the request for the community group. Requests from identities the bot has
// never registered are left for a human admin.
func (t *TelegramBot) handleJoinRequest(ctx context.Context, req *tgbotapi.ChatJoinRequest) {
	if req.Chat.ID != t.groupID {
		return
	}
	userID := req.From.ID
	person, err := t.repo.FindPersonByTelegramID(ctx, userID)
	if err != nil {
		t.logger.Error("join request lookup failed", "user_id", userID, "error", err)
		return
	}
	if person == nil {
		t.logger.Info("join request from unregistered user, skipping", "user_id", userID)
		return
	}
	if err := t.repo.SetMember(ctx, userID); err != nil {
		t.logger.Error("set member failed", "user_id", userID, "error", err)
	}
	if t.approver == nil {
		return
	}
	if err := t.approver.ApproveJoinRequest(ctx, userID); err != nil {
		t.logger.Error("approve join request failed", "user_id", userID, "error", err)
		return
	}
	t.logger.Info("join request approved", "user_id", userID)
}

func (t *TelegramBot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Acknowledge first so the client stops the spinner even if the
	// engine takes a moment.
	if _, err := t.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		t.logger.Warn("answer callback failed", "error", err)
	}

	ev := engine.Event{
		UserID:   cq.From.ID,
		Kind:     engine.KindChoice,
		Payload:  cq.Data,
		Handle:   cq.From.UserName,
		FullName: displayName(cq.From),
	}
	t.deliver(ctx, t.engine.HandleEvent(ctx, ev))
}

func (t *TelegramBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	ev := engine.Event{
		UserID:   msg.From.ID,
		Kind:     engine.KindText,
		Payload:  msg.Text,
		Handle:   msg.From.UserName,
		FullName: displayName(msg.From),
	}
	if msg.IsCommand() {
		token, ok := commandTokens[msg.Command()]
		if !ok {
			return
		}
		ev.Kind = engine.KindChoice
		ev.Payload = token
	}
	t.deliver(ctx, t.engine.HandleEvent(ctx, ev))
}

// commandTokens maps slash commands to their choice tokens.
var commandTokens = map[string]string{
	"start":          engine.TokenStart,
	"search_peers":   engine.TokenSearchPeers,
	"change_profile": engine.TokenChangeProfile,
}

func (t *TelegramBot) deliver(_ context.Context, effects []engine.Effect) {
	for _, eff := range effects {
		msg := tgbotapi.NewMessage(eff.UserID, eff.Message)
		if len(eff.Choices) > 0 {
			msg.ReplyMarkup = keyboard(eff.Choices)
		}
		if _, err := t.bot.Send(msg); err != nil {
			t.logger.Error("send message failed", "user_id", eff.UserID, "error", err)
		}
	}
}

// keyboard renders choices as an inline keyboard, one button per row.
func keyboard(choices []engine.Choice) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		var btn tgbotapi.InlineKeyboardButton
		if c.URL != "" {
			btn = tgbotapi.NewInlineKeyboardButtonURL(c.Label, c.URL)
		} else {
			btn = tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Token)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
