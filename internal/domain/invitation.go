package domain

import "time"

// InvitationStatus represents the lifecycle status of a partner invitation.
type InvitationStatus string

const (
	InvitationPending InvitationStatus = "pending"
	InvitationClaimed InvitationStatus = "claimed"
	InvitationRevoked InvitationStatus = "revoked"
	InvitationExpired InvitationStatus = "expired"
)

// InvitationValidity is how long a partner invitation stays claimable.
const InvitationValidity = 7 * 24 * time.Hour

// Invitation records a request for a partner to join the app. The wizard
// only decides whether one should be created; its lifecycle (claiming,
// expiry sweeps) is owned by the store.
type Invitation struct {
	ID           string
	InviterID    string
	InviteeEmail string
	Status       InvitationStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// NewInvitation creates a pending invitation with the fixed validity window.
func NewInvitation(id, inviterID, inviteeEmail string, now func() time.Time) Invitation {
	if now == nil {
		now = time.Now
	}
	createdAt := now().UTC()
	return Invitation{
		ID:           id,
		InviterID:    inviterID,
		InviteeEmail: NormalizeEmail(inviteeEmail),
		Status:       InvitationPending,
		CreatedAt:    createdAt,
		ExpiresAt:    createdAt.Add(InvitationValidity),
	}
}

// Claimable reports whether the invitation is still pending and unexpired.
func (i Invitation) Claimable(at time.Time) bool {
	return i.Status == InvitationPending && at.Before(i.ExpiresAt)
}
