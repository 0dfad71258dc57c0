package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ashureev/peerbot/internal/domain"
)

// Memory is an in-process Store used by tests and the dev console.
// Sessions are deep-copied on load and save, so a caller mutating its copy
// cannot race another turn's view of the same session.
type Memory struct {
	mu       sync.RWMutex
	sessions map[int64]*domain.Session
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[int64]*domain.Session)}
}

// LoadSession retrieves a copy of the session for a user.
func (m *Memory) LoadSession(_ context.Context, userID int64) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return copySession(sess)
}

// SaveSession stores a copy of the session.
func (m *Memory) SaveSession(_ context.Context, session *domain.Session) error {
	cp, err := copySession(session)
	if err != nil {
		return err
	}
	cp.UpdatedAt = time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID] = cp
	return nil
}

// DeleteSession removes the session for a user.
func (m *Memory) DeleteSession(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func copySession(sess *domain.Session) (*domain.Session, error) {
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("copy session: %w", err)
	}
	var cp domain.Session
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("copy session: %w", err)
	}
	if cp.Scratch == nil {
		cp.Scratch = make(map[string]string)
	}
	return &cp, nil
}
