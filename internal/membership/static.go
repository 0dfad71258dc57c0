package membership

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Static is an in-process Gateway for tests and the dev console. Membership
// is a mutable set of user IDs; invite links are unique throwaway URLs.
type Static struct {
	mu      sync.RWMutex
	members map[int64]bool
	baseURL string
}

// NewStatic creates a gateway with no members.
func NewStatic(baseURL string) *Static {
	if baseURL == "" {
		baseURL = "https://t.me/+"
	}
	return &Static{members: make(map[int64]bool), baseURL: baseURL}
}

// Add marks a user as a community member.
func (s *Static) Add(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[userID] = true
}

// IsMember reports whether the user was added.
func (s *Static) IsMember(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.members[userID], nil
}

// CreateInviteLink returns a unique single-use link.
func (s *Static) CreateInviteLink(_ context.Context) (string, error) {
	return fmt.Sprintf("%s%s", s.baseURL, uuid.NewString()), nil
}
