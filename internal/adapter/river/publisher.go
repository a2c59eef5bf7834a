package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/pairprep/pairprep/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries the data needed to process a wizard event
// asynchronously. River serializes this as JSON into its job queue table.
// It includes a snapshot of the profile at publish time, so the worker
// never needs to query the database.
type EventJobArgs struct {
	Event           string  `json:"event"`
	UserID          string  `json:"user_id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	MaritalStatus   string  `json:"marital_status"`
	ProfileComplete bool    `json:"profile_complete"`
	PartnerEmail    *string `json:"partner_email,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "wizard.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a wizard event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.WizardEvent, profile domain.Profile) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Event:           string(event),
		UserID:          profile.UserID,
		Email:           profile.Email,
		FirstName:       profile.FirstName,
		MaritalStatus:   string(profile.MaritalStatus),
		ProfileComplete: profile.Complete(),
		PartnerEmail:    profile.PartnerEmail,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
