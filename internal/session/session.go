// Package session abstracts storage of per-conversation working state.
//
// The conversation engine is stateless between turns: it loads the session,
// mutates it, and saves it back. Callers must either serialize events per
// user ID or use a Store whose implementation locks around the
// load-mutate-save cycle; the engine itself provides no mutual exclusion.
package session

import (
	"context"

	"github.com/ashureev/peerbot/internal/domain"
)

// Store holds active conversation sessions keyed by Telegram user ID.
// The method set is a subset of store.SessionRepository so the SQLite
// repository can serve as a durable, restart-safe implementation.
type Store interface {
	// LoadSession retrieves the session for a user, or (nil, nil) if none.
	LoadSession(ctx context.Context, userID int64) (*domain.Session, error)

	// SaveSession creates or updates the session for a user.
	SaveSession(ctx context.Context, session *domain.Session) error

	// DeleteSession removes the session for a user.
	DeleteSession(ctx context.Context, userID int64) error
}
