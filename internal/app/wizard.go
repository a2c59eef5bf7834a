package app

import (
	"context"
	"sync"
	"time"

	"github.com/pairprep/pairprep/internal/domain"
)

// Session is the authenticated identity injected into the wizard. The
// wizard never reads ambient auth state.
type Session struct {
	UserID string
	Email  string
}

// Complete reports whether the session can back a submission.
func (s Session) Complete() bool {
	return s.UserID != "" && s.Email != ""
}

// WizardSession owns the in-memory draft for one user's trip through the
// profile-setup wizard: the current step, entered values, touched set,
// field errors and the completed-step set. It is discarded on successful
// submission; the durable record is only what the pipeline persists.
type WizardSession struct {
	mu sync.Mutex

	session   Session
	step      domain.Step
	draft     domain.Draft
	touched   map[domain.Field]bool
	errors    map[domain.Field]string
	completed map[domain.Step]bool

	submitting bool

	nav   domain.StepNavigator
	sched *Scheduler
	vctx  domain.ValidationContext
}

// WizardState is a read-only snapshot of a session for rendering. Errors
// only include touched fields: an untouched field's error is never shown,
// even though step validation may have recorded it internally.
type WizardState struct {
	Step       domain.Step
	Draft      domain.Draft
	Errors     map[domain.Field]string
	Completed  []domain.Step
	Submitting bool
}

// NewWizardSession creates a session starting on the first step, seeded
// from an existing profile draft (empty when the user has none).
func NewWizardSession(sess Session, seed domain.Draft, nav domain.StepNavigator, sched *Scheduler, now func() time.Time) *WizardSession {
	if seed == nil {
		seed = make(domain.Draft)
	}
	return &WizardSession{
		session:   sess,
		step:      domain.FirstStep(),
		draft:     seed,
		touched:   make(map[domain.Field]bool),
		errors:    make(map[domain.Field]string),
		completed: map[domain.Step]bool{domain.FirstStep(): true},
		nav:       nav,
		sched:     sched,
		vctx: domain.ValidationContext{
			Now:       now,
			UserEmail: sess.Email,
		},
	}
}

// Step returns the current step.
func (w *WizardSession) Step() domain.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// SetField records a new value for a field. If the field has been touched,
// a debounced validation run is scheduled; an earlier pending run for the
// same field is replaced. Untouched fields never auto-validate.
func (w *WizardSession) SetField(f domain.Field, value string) {
	w.mu.Lock()
	w.draft[f] = value
	touched := w.touched[f]
	w.mu.Unlock()

	if touched && w.sched != nil {
		w.sched.Schedule(string(f), func() { w.validateField(f) })
	}
}

// Blur marks a field touched and validates it immediately, cancelling any
// pending debounced run so the result reflects the final value.
func (w *WizardSession) Blur(f domain.Field) {
	w.mu.Lock()
	w.touched[f] = true
	w.mu.Unlock()

	if w.sched != nil {
		w.sched.CancelPending(string(f))
	}
	w.validateField(f)
}

func (w *WizardSession) validateField(f domain.Field) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if msg := domain.ValidateField(f, w.draft, w.vctx); msg != "" {
		w.errors[f] = msg
	} else {
		delete(w.errors, f)
	}
}

// Next validates the current step and, when every field passes, advances
// to the following step and marks it completed. On any validation error
// the step is unchanged and the step's error entries are repopulated.
// Returns ErrAtFinalStep on the last step: submission is not a step.
func (w *WizardSession) Next(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if errs := w.validateStepLocked(w.step); len(errs) > 0 {
		return &domain.ValidationFailedError{Step: w.step, Fields: errs}
	}

	if w.step == domain.LastStep() {
		return domain.ErrAtFinalStep
	}

	next, err := w.nav.Apply(ctx, w.step, domain.EventNext)
	if err != nil {
		return err
	}
	w.step = next
	w.completed[next] = true
	return nil
}

// Back moves to the immediately preceding step. Never blocked by
// validation: editing previously entered data must always be possible.
// No-op on the first step.
func (w *WizardSession) Back(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step == domain.FirstStep() {
		return nil
	}

	prev, err := w.nav.Apply(ctx, w.step, domain.EventBack)
	if err != nil {
		return err
	}
	w.step = prev
	return nil
}

// GoToStep jumps to a target step. Permitted only when the target was
// completed before, or is exactly the step after the current one; any
// other target is a no-op. A forward move marks the target completed.
func (w *WizardSession) GoToStep(target domain.Step) {
	w.mu.Lock()
	defer w.mu.Unlock()

	from := domain.StepIndex(w.step)
	to := domain.StepIndex(target)
	if to < 0 {
		return
	}
	if !w.completed[target] && to != from+1 {
		return
	}

	w.step = target
	if to > from {
		w.completed[target] = true
	}
}

// validateStepLocked re-checks every field the step owns, regardless of
// touched state, and repopulates the session's error entries for them.
func (w *WizardSession) validateStepLocked(step domain.Step) map[domain.Field]string {
	errs := domain.ValidateStep(step, w.draft, w.vctx)
	for _, f := range domain.StepFields(step) {
		if msg, ok := errs[f]; ok {
			w.errors[f] = msg
		} else {
			delete(w.errors, f)
		}
	}
	return errs
}

// ValidateFinalStep re-runs the last step's validation for submission
// gating.
func (w *WizardSession) ValidateFinalStep() map[domain.Field]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.validateStepLocked(domain.LastStep())
}

// Draft returns a copy of the entered values.
func (w *WizardSession) Draft() domain.Draft {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(domain.Draft, len(w.draft))
	for f, v := range w.draft {
		out[f] = v
	}
	return out
}

// State snapshots the session for rendering. Only touched fields carry
// visible errors.
func (w *WizardSession) State() WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := WizardState{
		Step:       w.step,
		Draft:      make(domain.Draft, len(w.draft)),
		Errors:     make(map[domain.Field]string),
		Submitting: w.submitting,
	}
	for f, v := range w.draft {
		st.Draft[f] = v
	}
	for f, msg := range w.errors {
		if w.touched[f] {
			st.Errors[f] = msg
		}
	}
	for _, s := range domain.StepOrder {
		if w.completed[s] {
			st.Completed = append(st.Completed, s)
		}
	}
	return st
}

// setSubmitting flips the submitting indicator, reporting whether the
// flip happened. A second submission cannot start while one is running.
func (w *WizardSession) setSubmitting(v bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if v && w.submitting {
		return false
	}
	w.submitting = v
	return true
}

// close cancels pending debounce timers when the session is discarded.
func (w *WizardSession) close() {
	if w.sched != nil {
		w.sched.CancelAll()
	}
}
