// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/peerbot/internal/domain"
)

// Repository defines the persistence operations the bot depends on.
// Lookup methods return (nil, nil) when no record matches.
type Repository interface {
	// FindPersonByTelegramID retrieves a person by their Telegram user ID.
	FindPersonByTelegramID(ctx context.Context, telegramID int64) (*domain.Person, error)

	// FindPersonBySchool21Nick retrieves a person by their School 21 nickname.
	FindPersonBySchool21Nick(ctx context.Context, nick string) (*domain.Person, error)

	// FindPersonByTelegramNick retrieves a person by their Telegram handle.
	FindPersonByTelegramNick(ctx context.Context, nick string) (*domain.Person, error)

	// UpsertPerson creates or fully overwrites a person record. An existing
	// record is matched by Telegram ID or by Telegram handle; role and level
	// lookup records are created on demand before the write.
	UpsertPerson(ctx context.Context, person *domain.Person) (*domain.Person, error)

	// SetInviteSent marks that an invite link was issued to the person.
	SetInviteSent(ctx context.Context, telegramID int64) error

	// SetMember marks the person as a confirmed community member.
	SetMember(ctx context.Context, telegramID int64) error

	// ListTeams returns the distinct team names of registered people.
	ListTeams(ctx context.Context) ([]string, error)

	// ListRoles returns all known role names.
	ListRoles(ctx context.Context) ([]string, error)

	// ListLevels returns all known level names.
	ListLevels(ctx context.Context) ([]string, error)

	// EnsureRole creates the role record if it does not exist yet.
	EnsureRole(ctx context.Context, name string) error

	// EnsureLevel creates the level record if it does not exist yet.
	EnsureLevel(ctx context.Context, name string) error

	// SearchByRoleLevel returns people with the exact role, filtered by the
	// exact level unless level is domain.LevelAny.
	SearchByRoleLevel(ctx context.Context, role, level string) ([]*domain.Person, error)

	// SearchByTeam returns people with the exact team name.
	SearchByTeam(ctx context.Context, team string) ([]*domain.Person, error)

	// SearchByNickname returns people whose Telegram, SberChat or School 21
	// nickname contains the substring, matched case-insensitively.
	SearchByNickname(ctx context.Context, substring string) ([]*domain.Person, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	SessionRepository
}

// SessionRepository persists conversation sessions keyed by Telegram user ID.
type SessionRepository interface {
	// LoadSession retrieves the active session for a user, or (nil, nil).
	LoadSession(ctx context.Context, userID int64) (*domain.Session, error)

	// SaveSession creates or updates the session for a user.
	SaveSession(ctx context.Context, session *domain.Session) error

	// DeleteSession removes the session for a user.
	DeleteSession(ctx context.Context, userID int64) error

	// CleanupExpiredSessions removes sessions idle longer than ttl and
	// returns how many were deleted.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)
}
