// Package membership checks community group membership and issues invites.
package membership

import "context"

// Gateway is the external collaborator guarding the search flow: it answers
// whether a user already belongs to the community group and mints one-time
// join links for those who do not.
type Gateway interface {
	// IsMember reports whether the user belongs to the community group.
	IsMember(ctx context.Context, userID int64) (bool, error)

	// CreateInviteLink returns a fresh one-time join link.
	CreateInviteLink(ctx context.Context) (string, error)
}
