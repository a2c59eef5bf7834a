package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pairprep/pairprep/internal/domain"
)

// Per-operation budgets for the network-bound submission work. Exceeding
// a budget is a failure of that operation, never a hang.
const (
	PersistTimeout      = 10 * time.Second
	PartnerCheckTimeout = 5 * time.Second
	PendingCheckTimeout = 5 * time.Second
	CreateInviteTimeout = 5 * time.Second
	CacheRefreshTimeout = 3 * time.Second
)

// StageResult records one time-boxed operation in the submission trace.
type StageResult struct {
	Name     string
	Err      error
	TimedOut bool
	Elapsed  time.Duration
}

// runTimeBoxed races fn against the budget. The operation runs in its own
// goroutine; on timeout the wait is abandoned and a *domain.TimeoutError
// is recorded, but the in-flight call is not cancelled.
func runTimeBoxed(ctx context.Context, name string, budget time.Duration, clock func() time.Time, fn func(context.Context) error) StageResult {
	if clock == nil {
		clock = time.Now
	}
	start := clock()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case err := <-done:
		return StageResult{Name: name, Err: err, Elapsed: clock().Sub(start)}
	case <-timer.C:
		return StageResult{
			Name:     name,
			Err:      &domain.TimeoutError{Op: name},
			TimedOut: true,
			Elapsed:  clock().Sub(start),
		}
	case <-ctx.Done():
		return StageResult{Name: name, Err: ctx.Err(), Elapsed: clock().Sub(start)}
	}
}

// Pipeline persists a composed profile with ordered fallback strategies,
// then performs best-effort secondary work. Stages 1-4 (validation,
// session precondition, persistence) are fatal; the invitation
// sub-sequence, cache refresh and event publish never abort a submission
// that already persisted.
type Pipeline struct {
	profiles    domain.ProfileRepository
	invitations domain.InvitationRepository
	cache       domain.ProfileCache
	publisher   domain.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
	newID       func() (string, error)
}

// NewPipeline creates a submission pipeline with the given collaborators.
// cache and publisher may be nil; their stages are then skipped.
func NewPipeline(profiles domain.ProfileRepository, invitations domain.InvitationRepository, cache domain.ProfileCache, publisher domain.EventPublisher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		profiles:    profiles,
		invitations: invitations,
		cache:       cache,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
		newID:       generateID,
	}
}

// WithClock replaces the pipeline clock, for tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Submit runs the full submission sequence for a validated draft and
// returns the persisted profile plus the stage-by-stage trace. A non-nil
// error means the pipeline halted before the profile was durably written;
// everything after persistence is best-effort.
func (p *Pipeline) Submit(ctx context.Context, sess Session, draft domain.Draft) (domain.Profile, []StageResult, error) {
	var trace []StageResult

	// Final-step validation, including the self-invite rule. No side
	// effects may happen when the draft is invalid.
	vctx := domain.ValidationContext{Now: p.now, UserEmail: sess.Email}
	if errs := domain.ValidateStep(domain.LastStep(), draft, vctx); len(errs) > 0 {
		if errs[domain.FieldPartnerEmail] == domain.MsgPartnerEmailIsOwn {
			return domain.Profile{}, trace, domain.ErrSelfInvitation
		}
		return domain.Profile{}, trace, &domain.ValidationFailedError{Step: domain.LastStep(), Fields: errs}
	}

	if !sess.Complete() {
		return domain.Profile{}, trace, domain.ErrSessionIncomplete
	}

	profile := domain.BuildProfile(draft, sess.UserID, sess.Email, p.now)

	trace, err := p.persist(ctx, profile, trace)
	if err != nil {
		return domain.Profile{}, trace, err
	}

	trace = p.invitePartner(ctx, sess, profile, trace)
	trace = p.refreshCache(ctx, trace)
	p.publish(ctx, domain.EventProfileSubmitted, profile)

	return profile, trace, nil
}

// persist attempts update, then insert, then upsert. Update failure of
// any kind falls through to insert; only a uniqueness conflict at insert
// time falls through to upsert. Anything else is fatal with the
// underlying error surfaced.
func (p *Pipeline) persist(ctx context.Context, profile domain.Profile, trace []StageResult) ([]StageResult, error) {
	update := runTimeBoxed(ctx, "profile.update", PersistTimeout, p.now, func(ctx context.Context) error {
		return p.profiles.Update(ctx, profile)
	})
	trace = append(trace, update)
	if update.Err == nil {
		return trace, nil
	}

	p.logger.Debug("profile update failed, trying insert",
		"user_id", profile.UserID, "error", update.Err)

	insert := runTimeBoxed(ctx, "profile.insert", PersistTimeout, p.now, func(ctx context.Context) error {
		return p.profiles.Insert(ctx, profile)
	})
	trace = append(trace, insert)
	if insert.Err == nil {
		return trace, nil
	}

	var conflict *domain.ConflictError
	if !errors.As(insert.Err, &conflict) {
		return trace, insert.Err
	}

	upsert := runTimeBoxed(ctx, "profile.upsert", PersistTimeout, p.now, func(ctx context.Context) error {
		return p.profiles.Upsert(ctx, profile)
	})
	trace = append(trace, upsert)
	if upsert.Err != nil {
		return trace, upsert.Err
	}
	return trace, nil
}

// invitePartner runs the best-effort invitation sub-sequence. Every
// failure here is logged and swallowed: it must never abort or roll back
// the persisted profile.
func (p *Pipeline) invitePartner(ctx context.Context, sess Session, profile domain.Profile, trace []StageResult) []StageResult {
	if profile.PartnerUsing == nil || !*profile.PartnerUsing || profile.PartnerEmail == nil {
		return trace
	}
	email := *profile.PartnerEmail

	// Validation already rejects a self-invite; this guard is the last
	// line before a write.
	if domain.NormalizeEmail(email) == domain.NormalizeEmail(sess.Email) {
		p.logger.Warn("self-invitation blocked after persistence", "user_id", sess.UserID)
		return trace
	}

	partner := runTimeBoxed(ctx, "partner.lookup", PartnerCheckTimeout, p.now, func(ctx context.Context) error {
		id, err := p.profiles.GetPartnerID(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if id != "" {
			return errAlreadyLinked
		}
		return nil
	})
	trace = append(trace, partner)
	if partner.Err != nil {
		if !errors.Is(partner.Err, errAlreadyLinked) {
			p.logger.Warn("partner lookup failed, skipping invitation",
				"user_id", sess.UserID, "error", partner.Err)
		}
		return trace
	}

	pending := runTimeBoxed(ctx, "invitation.find_pending", PendingCheckTimeout, p.now, func(ctx context.Context) error {
		_, err := p.invitations.FindPending(ctx, sess.UserID)
		return err
	})
	trace = append(trace, pending)
	if pending.Err == nil {
		// A pending invitation already exists; nothing to create.
		return trace
	}
	if !errors.Is(pending.Err, domain.ErrInvitationNotFound) {
		p.logger.Warn("pending invitation check failed, skipping invitation",
			"user_id", sess.UserID, "error", pending.Err)
		return trace
	}

	create := runTimeBoxed(ctx, "invitation.create", CreateInviteTimeout, p.now, func(ctx context.Context) error {
		id, err := p.newID()
		if err != nil {
			return err
		}
		return p.invitations.Create(ctx, domain.NewInvitation(id, sess.UserID, email, p.now))
	})
	trace = append(trace, create)
	if create.Err != nil {
		p.logger.Warn("invitation creation failed",
			"user_id", sess.UserID, "error", create.Err)
		return trace
	}

	p.publish(ctx, domain.EventInvitationCreated, profile)
	return trace
}

// errAlreadyLinked short-circuits invitation creation when the user
// already has a partner. Internal to the pipeline.
var errAlreadyLinked = errors.New("partner already linked")

func (p *Pipeline) refreshCache(ctx context.Context, trace []StageResult) []StageResult {
	if p.cache == nil {
		return trace
	}
	refresh := runTimeBoxed(ctx, "profile.cache_refresh", CacheRefreshTimeout, p.now, func(ctx context.Context) error {
		return p.cache.Refresh(ctx)
	})
	trace = append(trace, refresh)
	if refresh.Err != nil {
		p.logger.Warn("profile cache refresh failed", "error", refresh.Err)
	}
	return trace
}

func (p *Pipeline) publish(ctx context.Context, event domain.WizardEvent, profile domain.Profile) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, event, profile); err != nil {
		p.logger.Warn("event publish failed", "event", string(event), "error", err)
	}
}
