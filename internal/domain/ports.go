package domain

import "context"

// ProfileRepository defines the persistence contract for profiles.
// Insert must surface uniqueness violations as *ConflictError so the
// submission pipeline can distinguish them from other failures.
type ProfileRepository interface {
	Update(ctx context.Context, profile Profile) error
	Insert(ctx context.Context, profile Profile) error
	Upsert(ctx context.Context, profile Profile) error
	GetByUserID(ctx context.Context, userID string) (Profile, error)
	// GetPartnerID returns the linked partner's user ID, or "" when the
	// user has no linked partner.
	GetPartnerID(ctx context.Context, userID string) (string, error)
}

// InvitationRepository defines the persistence contract for partner
// invitations. FindPending returns ErrInvitationNotFound when the inviter
// has no pending invitation.
type InvitationRepository interface {
	FindPending(ctx context.Context, inviterID string) (Invitation, error)
	Create(ctx context.Context, invitation Invitation) error
}

// StepNavigator validates wizard navigation events against the fixed
// step machine.
type StepNavigator interface {
	Apply(ctx context.Context, current Step, event Event) (Step, error)
}

// ProfileCache refreshes any externally cached copy of the profile after
// a successful submission. Semantics are opaque to the wizard.
type ProfileCache interface {
	Refresh(ctx context.Context) error
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event WizardEvent, profile Profile) error
}

// WizardEvent names a domain event emitted by the wizard.
type WizardEvent string

const (
	EventProfileSubmitted  WizardEvent = "profile.submitted"
	EventInvitationCreated WizardEvent = "invitation.created"
)
