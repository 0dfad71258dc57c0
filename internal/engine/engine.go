// Package engine implements the conversational state machine driving
// registration and peer search.
//
// The engine is stateless between turns: each inbound event loads the
// session, dispatches to the handler for the session's (flow, state) pair,
// mutates scratch data, and saves the session back before returning the
// outbound effects. Callers must serialize events per user ID; see the
// session package for the concurrency contract.
package engine

import (
	"context"
	"log/slog"

	"github.com/ashureev/peerbot/internal/domain"
	"github.com/ashureev/peerbot/internal/membership"
	"github.com/ashureev/peerbot/internal/session"
	"github.com/ashureev/peerbot/internal/store"
)

// EventKind distinguishes free text from discrete button choices.
type EventKind int

const (
	// KindText is free text typed by the user.
	KindText EventKind = iota
	// KindChoice is a discrete choice token (callback data).
	KindChoice
)

// Event is one inbound user action.
type Event struct {
	UserID  int64
	Kind    EventKind
	Payload string
	// Handle is the sender's Telegram username, consumed by the
	// "use my Telegram handle" choice during registration.
	Handle string
	// FullName is the sender's display name, recorded on registration.
	FullName string
}

// Choice is one button offered to the user. Token is opaque to transports;
// a non-empty URL makes the button a link instead of a callback.
type Choice struct {
	Label string
	Token string
	URL   string
}

// Effect is one outbound message with optional choices.
type Effect struct {
	UserID  int64
	Message string
	Choices []Choice
}

// Engine drives both conversation flows.
type Engine struct {
	repo     store.Repository
	sessions session.Store
	group    membership.Gateway
	pageSize int
	logger   *slog.Logger
}

// New creates an engine. pageSize controls both filter-option and
// search-result pagination.
func New(repo store.Repository, sessions session.Store, group membership.Gateway, pageSize int, logger *slog.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:     repo,
		sessions: sessions,
		group:    group,
		pageSize: pageSize,
		logger:   logger,
	}
}

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 10

type handlerFunc func(*Engine, context.Context, *domain.Session, Event) []Effect

// HandleEvent processes one inbound event and returns the outbound effects.
// It never returns an error: every failure class maps to a user-visible
// message and a defined state, per the conversation's recovery rules.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) []Effect {
	sess, err := e.sessions.LoadSession(ctx, ev.UserID)
	if err != nil {
		e.logger.Error("load session failed", "user_id", ev.UserID, "error", err)
		return []Effect{{UserID: ev.UserID, Message: msgUpdateError}}
	}
	if sess == nil {
		sess = domain.NewSession(ev.UserID, FlowSearch, StateCriteriaSelect)
	}

	var effects []Effect
	switch {
	case ev.Kind == KindChoice && (ev.Payload == TokenStart || ev.Payload == TokenSearchPeers):
		effects = e.welcome(sess)
	case ev.Kind == KindChoice && ev.Payload == TokenChangeProfile:
		effects = e.changeProfile(ctx, sess, ev)
	case sess.Flow == FlowRegistration:
		effects = e.dispatch(ctx, sess, ev, regHandlers)
	default:
		effects = e.dispatch(ctx, sess, ev, searchHandlers)
	}

	if err := e.sessions.SaveSession(ctx, sess); err != nil {
		e.logger.Error("save session failed", "user_id", ev.UserID, "error", err)
		return []Effect{{UserID: ev.UserID, Message: msgUpdateError}}
	}
	return effects
}

func (e *Engine) dispatch(ctx context.Context, sess *domain.Session, ev Event, table map[domain.State]handlerFunc) []Effect {
	handler, ok := table[sess.State]
	if !ok {
		// Corrupt or legacy state: reset to the search entry point.
		e.logger.Warn("unknown session state, resetting", "user_id", sess.UserID, "state", sess.State)
		sess.ClearScratch()
		sess.Flow = FlowSearch
		sess.State = StateCriteriaSelect
		return e.reply(sess, msgCantBackToPreviousStep)
	}
	return handler(e, ctx, sess, ev)
}

// welcome resets the session and greets the user at the search entry point.
func (e *Engine) welcome(sess *domain.Session) []Effect {
	sess.ClearScratch()
	sess.Flow = FlowSearch
	sess.State = StateCriteriaSelect
	return e.reply(sess, msgWelcomeSearchPeers, Choice{Label: btnContinue, Token: TokenContinue})
}

func (e *Engine) reply(sess *domain.Session, message string, choices ...Choice) []Effect {
	return []Effect{{UserID: sess.UserID, Message: message, Choices: choices}}
}
