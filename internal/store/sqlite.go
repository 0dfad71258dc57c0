package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/peerbot/internal/domain"
	"github.com/ashureev/peerbot/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS levels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id INTEGER NOT NULL UNIQUE,
		full_name TEXT,
		role TEXT REFERENCES roles(name),
		level TEXT REFERENCES levels(name),
		team TEXT NOT NULL,
		project TEXT,
		telegram_nick TEXT NOT NULL,
		sberchat_nick TEXT NOT NULL,
		school21_nick TEXT NOT NULL,
		registration_date INTEGER NOT NULL,
		invite_sent INTEGER NOT NULL DEFAULT 0,
		is_member INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_users_team ON users(team);
	CREATE INDEX IF NOT EXISTS idx_users_role_level ON users(role, level);
	CREATE INDEX IF NOT EXISTS idx_users_school21_nick ON users(school21_nick);

	CREATE TABLE IF NOT EXISTS sessions (
		user_id INTEGER PRIMARY KEY,
		flow TEXT NOT NULL,
		state TEXT NOT NULL,
		scratch_json TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const personColumns = `id, telegram_id, full_name, role, level, team, project,
	telegram_nick, sberchat_nick, school21_nick, registration_date, invite_sent, is_member`

func scanPerson(row interface{ Scan(...any) error }) (*domain.Person, error) {
	var p domain.Person
	var fullName, role, level, project sql.NullString
	var registrationDate int64

	err := row.Scan(
		&p.ID, &p.TelegramID, &fullName, &role, &level, &p.Team, &project,
		&p.TelegramNick, &p.SberchatNick, &p.School21Nick,
		&registrationDate, &p.InviteSent, &p.IsMember,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan person row: %w", err)
	}

	p.FullName = fullName.String
	p.Role = role.String
	p.Level = level.String
	p.Project = project.String
	p.RegistrationDate = time.Unix(registrationDate, 0)
	return &p, nil
}

// FindPersonByTelegramID retrieves a person by their Telegram user ID.
func (s *SQLiteStore) FindPersonByTelegramID(ctx context.Context, telegramID int64) (*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM users WHERE telegram_id = ?`
	return scanPerson(s.db.QueryRowContext(ctx, query, telegramID))
}

// FindPersonBySchool21Nick retrieves a person by their School 21 nickname.
func (s *SQLiteStore) FindPersonBySchool21Nick(ctx context.Context, nick string) (*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM users WHERE school21_nick = ?`
	return scanPerson(s.db.QueryRowContext(ctx, query, nick))
}

// FindPersonByTelegramNick retrieves a person by their Telegram handle.
func (s *SQLiteStore) FindPersonByTelegramNick(ctx context.Context, nick string) (*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM users WHERE telegram_nick = ?`
	return scanPerson(s.db.QueryRowContext(ctx, query, nick))
}

// UpsertPerson creates or fully overwrites a person record, matching an
// existing row by Telegram ID or Telegram handle. Role and level lookup
// records are created on demand inside the same transaction.
func (s *SQLiteStore) UpsertPerson(ctx context.Context, person *domain.Person) (*domain.Person, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if person.Role != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO roles (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, person.Role); err != nil {
			return nil, fmt.Errorf("ensure role: %w", err)
		}
	}
	if person.Level != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO levels (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, person.Level); err != nil {
			return nil, fmt.Errorf("ensure level: %w", err)
		}
	}

	if person.RegistrationDate.IsZero() {
		person.RegistrationDate = time.Now()
	}

	var existingID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE telegram_id = ? OR telegram_nick = ?`,
		person.TelegramID, person.TelegramNick,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx, `
			INSERT INTO users (telegram_id, full_name, role, level, team, project,
				telegram_nick, sberchat_nick, school21_nick, registration_date, invite_sent, is_member)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			person.TelegramID, nullable(person.FullName), nullable(person.Role), nullable(person.Level),
			person.Team, nullable(person.Project), person.TelegramNick, person.SberchatNick,
			person.School21Nick, person.RegistrationDate.Unix(), person.InviteSent, person.IsMember,
		)
		if err != nil {
			if shared.IsSQLiteUniqueError(err) {
				return nil, domain.Conflictf("telegram id %d already registered", person.TelegramID)
			}
			return nil, fmt.Errorf("insert person: %w", err)
		}
		person.ID, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup existing person: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET telegram_id = ?, full_name = ?, role = ?, level = ?, team = ?,
				project = ?, telegram_nick = ?, sberchat_nick = ?, school21_nick = ?,
				invite_sent = ?, is_member = ?
			WHERE id = ?`,
			person.TelegramID, nullable(person.FullName), nullable(person.Role), nullable(person.Level),
			person.Team, nullable(person.Project), person.TelegramNick, person.SberchatNick,
			person.School21Nick, person.InviteSent, person.IsMember, existingID,
		); err != nil {
			return nil, fmt.Errorf("update person: %w", err)
		}
		person.ID = existingID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return person, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// SetInviteSent marks that an invite link was issued to the person.
func (s *SQLiteStore) SetInviteSent(ctx context.Context, telegramID int64) error {
	return s.setFlag(ctx, "invite_sent", telegramID)
}

// SetMember marks the person as a confirmed community member.
func (s *SQLiteStore) SetMember(ctx context.Context, telegramID int64) error {
	return s.setFlag(ctx, "is_member", telegramID)
}

func (s *SQLiteStore) setFlag(ctx context.Context, column string, telegramID int64) error {
	// column is one of two compile-time constants, never user input.
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET `+column+` = 1 WHERE telegram_id = ?`, telegramID)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("flag update affected 0 rows", "column", column, "telegram_id", telegramID)
	}
	return nil
}

// ListTeams returns the distinct team names of registered people.
func (s *SQLiteStore) ListTeams(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT DISTINCT team FROM users ORDER BY team`)
}

// ListRoles returns all known role names.
func (s *SQLiteStore) ListRoles(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT name FROM roles ORDER BY id`)
}

// ListLevels returns all known level names.
func (s *SQLiteStore) ListLevels(ctx context.Context) ([]string, error) {
	return s.listStrings(ctx, `SELECT name FROM levels ORDER BY id`)
}

func (s *SQLiteStore) listStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close rows", "error", closeErr)
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate names: %w", err)
	}
	return names, nil
}

// EnsureRole creates the role record if it does not exist yet.
func (s *SQLiteStore) EnsureRole(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO roles (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("ensure role: %w", err)
	}
	return nil
}

// EnsureLevel creates the level record if it does not exist yet.
func (s *SQLiteStore) EnsureLevel(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO levels (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return fmt.Errorf("ensure level: %w", err)
	}
	return nil
}

// SearchByRoleLevel returns people with the exact role, filtered by level
// unless level is the "any" sentinel.
func (s *SQLiteStore) SearchByRoleLevel(ctx context.Context, role, level string) ([]*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM users WHERE role = ?`
	args := []any{role}
	if level != domain.LevelAny {
		query += ` AND level = ?`
		args = append(args, level)
	}
	query += ` ORDER BY id`
	return s.queryPeople(ctx, query, args...)
}

// SearchByTeam returns people with the exact team name.
func (s *SQLiteStore) SearchByTeam(ctx context.Context, team string) ([]*domain.Person, error) {
	query := `SELECT ` + personColumns + ` FROM users WHERE team = ? ORDER BY id`
	return s.queryPeople(ctx, query, team)
}

// SearchByNickname returns people whose Telegram, SberChat or School 21
// nickname contains the substring. SQLite LIKE is case-insensitive for ASCII.
func (s *SQLiteStore) SearchByNickname(ctx context.Context, substring string) ([]*domain.Person, error) {
	pattern := "%" + substring + "%"
	query := `SELECT ` + personColumns + ` FROM users
		WHERE telegram_nick LIKE ? OR sberchat_nick LIKE ? OR school21_nick LIKE ?
		ORDER BY id`
	return s.queryPeople(ctx, query, pattern, pattern, pattern)
}

func (s *SQLiteStore) queryPeople(ctx context.Context, query string, args ...any) ([]*domain.Person, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close people rows", "error", closeErr)
		}
	}()

	var people []*domain.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}

// LoadSession retrieves the active session for a user.
func (s *SQLiteStore) LoadSession(ctx context.Context, userID int64) (*domain.Session, error) {
	query := `SELECT user_id, flow, state, scratch_json, created_at, updated_at
		FROM sessions WHERE user_id = ?`
	row := s.db.QueryRowContext(ctx, query, userID)

	var sess domain.Session
	var scratchJSON string
	var createdAt, updatedAt int64

	err := row.Scan(&sess.UserID, &sess.Flow, &sess.State, &scratchJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(scratchJSON), &sess.Scratch); err != nil {
		return nil, fmt.Errorf("%w: decode scratch for user %d: %v", domain.ErrSessionLost, userID, err)
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	return &sess, nil
}

// SaveSession creates or updates the session for a user.
func (s *SQLiteStore) SaveSession(ctx context.Context, session *domain.Session) error {
	scratchJSON, err := json.Marshal(session.Scratch)
	if err != nil {
		return fmt.Errorf("encode session scratch: %w", err)
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO sessions (user_id, flow, state, scratch_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			flow = excluded.flow,
			state = excluded.state,
			scratch_json = excluded.scratch_json,
			updated_at = excluded.updated_at`

	// One retry on lock contention; the busy timeout covers the rest.
	for attempt := 0; ; attempt++ {
		_, err = s.db.ExecContext(ctx, query,
			session.UserID, session.Flow, session.State, string(scratchJSON),
			session.CreatedAt.Unix(), time.Now().Unix(),
		)
		if err == nil {
			return nil
		}
		if attempt == 0 && shared.IsSQLiteConflictError(err) {
			continue
		}
		return fmt.Errorf("upsert session: %w", err)
	}
}

// DeleteSession removes the session for a user.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes sessions idle longer than ttl.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}
