package domain

import (
	"strconv"
	"time"
)

// Flow identifies one of the two top-level conversations.
type Flow string

// State is a named step within a flow. The closed sets of states are
// declared by the engine package; domain treats them as opaque labels so
// the store can persist them without importing the engine.
type State string

// Session holds the per-conversation working state for a single user.
// It is owned by the session store: the engine loads it at the start of a
// turn, mutates it, and saves it back before replying.
type Session struct {
	UserID    int64             `json:"user_id"`
	Flow      Flow              `json:"flow"`
	State     State             `json:"state"`
	Scratch   map[string]string `json:"scratch"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSession creates an empty session for a user.
func NewSession(userID int64, flow Flow, state State) *Session {
	now := time.Now()
	return &Session{
		UserID:    userID,
		Flow:      flow,
		State:     state,
		Scratch:   make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Get returns the scratch value for a key, or "" if unset.
func (s *Session) Get(key string) string {
	return s.Scratch[key]
}

// Has reports whether a scratch key is set.
func (s *Session) Has(key string) bool {
	_, ok := s.Scratch[key]
	return ok
}

// Set stores a scratch value.
func (s *Session) Set(key, value string) {
	if s.Scratch == nil {
		s.Scratch = make(map[string]string)
	}
	s.Scratch[key] = value
}

// Delete removes a scratch key.
func (s *Session) Delete(key string) {
	delete(s.Scratch, key)
}

// GetInt returns the scratch value for a key parsed as an int,
// or 0 when the key is unset or malformed.
func (s *Session) GetInt(key string) int {
	n, err := strconv.Atoi(s.Scratch[key])
	if err != nil {
		return 0
	}
	return n
}

// SetInt stores an int scratch value.
func (s *Session) SetInt(key string, n int) {
	s.Set(key, strconv.Itoa(n))
}

// ClearScratch drops all accumulated scratch data.
func (s *Session) ClearScratch() {
	s.Scratch = make(map[string]string)
}
