package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pairprep/pairprep/internal/domain"
)

// ErrNoActiveWizard indicates no wizard session exists for the user.
var ErrNoActiveWizard = errors.New("no active wizard session")

// WizardService orchestrates wizard sessions: starting them seeded from
// any existing profile, routing field edits and navigation to the owning
// session, and running the submission pipeline.
type WizardService struct {
	profiles domain.ProfileRepository
	nav      domain.StepNavigator
	pipeline *Pipeline
	logger   *slog.Logger
	now      func() time.Time
	quiet    time.Duration

	mu       sync.Mutex
	sessions map[string]*WizardSession
}

// NewWizardService creates a service with the given adapters.
func NewWizardService(profiles domain.ProfileRepository, nav domain.StepNavigator, pipeline *Pipeline, logger *slog.Logger) *WizardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WizardService{
		profiles: profiles,
		nav:      nav,
		pipeline: pipeline,
		logger:   logger,
		now:      time.Now,
		quiet:    DefaultQuietPeriod,
	}
}

// WithClock replaces the service clock, for tests. Applies to sessions
// started afterwards.
func (s *WizardService) WithClock(now func() time.Time) *WizardService {
	s.now = now
	return s
}

// WithQuietPeriod overrides the debounce window for sessions started
// afterwards.
func (s *WizardService) WithQuietPeriod(d time.Duration) *WizardService {
	s.quiet = d
	return s
}

// Start creates (or returns) the wizard session for the authenticated
// user, seeding the draft from an existing profile when one exists so the
// wizard carries edit/resume semantics.
func (s *WizardService) Start(ctx context.Context, sess Session) (*WizardSession, error) {
	if sess.UserID == "" {
		return nil, domain.ErrSessionIncomplete
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions == nil {
		s.sessions = make(map[string]*WizardSession)
	}
	if existing, ok := s.sessions[sess.UserID]; ok {
		return existing, nil
	}

	var seed domain.Draft
	profile, err := s.profiles.GetByUserID(ctx, sess.UserID)
	switch {
	case err == nil:
		seed = domain.SeedDraft(profile)
	case errors.Is(err, domain.ErrProfileNotFound):
		seed = make(domain.Draft)
	default:
		return nil, fmt.Errorf("loading existing profile: %w", err)
	}

	ws := NewWizardSession(sess, seed, s.nav, NewScheduler(s.quiet), s.now)
	s.sessions[sess.UserID] = ws
	return ws, nil
}

// Get returns the active session for a user.
func (s *WizardService) Get(userID string) (*WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNoActiveWizard
	}
	return ws, nil
}

// Submit runs the submission pipeline for the user's session. On success
// the in-memory session is discarded; on any fatal failure it stays
// intact so the user can correct and resubmit. The submitting indicator
// is cleared on every exit path.
func (s *WizardService) Submit(ctx context.Context, sess Session) (domain.Profile, []StageResult, error) {
	ws, err := s.Get(sess.UserID)
	if err != nil {
		return domain.Profile{}, nil, err
	}

	if !ws.setSubmitting(true) {
		return domain.Profile{}, nil, ErrSubmissionInFlight
	}
	defer ws.setSubmitting(false)

	profile, trace, err := s.pipeline.Submit(ctx, sess, ws.Draft())
	if err != nil {
		return domain.Profile{}, trace, err
	}

	s.discard(sess.UserID)
	return profile, trace, nil
}

// ErrSubmissionInFlight rejects a second submit while one is running.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

func (s *WizardService) discard(userID string) {
	s.mu.Lock()
	ws, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if ok {
		ws.close()
	}
}

// Abandon drops a user's session without submitting, discarding the
// draft. Used when the user navigates away.
func (s *WizardService) Abandon(userID string) {
	s.discard(userID)
}
