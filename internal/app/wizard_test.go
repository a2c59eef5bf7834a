package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pairprep/pairprep/internal/domain"
)

var testNow = func() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

// stubNavigator walks the step order by index, mirroring the transition
// table without pulling in the fsm adapter.
type stubNavigator struct{}

func (stubNavigator) Apply(_ context.Context, current domain.Step, event domain.Event) (domain.Step, error) {
	i := domain.StepIndex(current)
	switch event {
	case domain.EventNext:
		if i >= 0 && i < len(domain.StepOrder)-1 {
			return domain.StepOrder[i+1], nil
		}
	case domain.EventBack:
		if i > 0 {
			return domain.StepOrder[i-1], nil
		}
	}
	return "", &domain.StepTransitionError{Event: event, Current: current}
}

func testSession() Session {
	return Session{UserID: "user-1", Email: "me@example.com"}
}

func newTestWizard(t *testing.T, opts ...SchedulerOption) *WizardSession {
	t.Helper()
	sched := NewScheduler(DefaultQuietPeriod, opts...)
	return NewWizardSession(testSession(), nil, stubNavigator{}, sched, testNow)
}

func fillEssential(w *WizardSession) {
	w.SetField(domain.FieldFirstName, "Ada")
}

func fillPersonal(w *WizardSession) {
	w.SetField(domain.FieldDateOfBirth, "1990-05-10")
	w.SetField(domain.FieldGender, "female")
	w.SetField(domain.FieldMaritalStatus, "engaged")
}

func TestWizardSession_StartsOnFirstStep(t *testing.T) {
	w := newTestWizard(t)

	st := w.State()
	if st.Step != domain.FirstStep() {
		t.Errorf("step = %q, want %q", st.Step, domain.FirstStep())
	}
	if len(st.Completed) != 1 || st.Completed[0] != domain.FirstStep() {
		t.Errorf("completed = %v, want only the first step", st.Completed)
	}
	if st.Submitting {
		t.Error("new session reports submitting")
	}
}

func TestWizardSession_UntouchedFieldNeverShowsError(t *testing.T) {
	timers := &fakeTimers{}
	w := newTestWizard(t, WithTimerFactory(timers.factory))

	// Typing into an untouched field schedules nothing.
	w.SetField(domain.FieldFirstName, "")
	if len(timers.created) != 0 {
		t.Fatalf("untouched SetField started %d timers, want 0", len(timers.created))
	}
	if len(w.State().Errors) != 0 {
		t.Errorf("errors = %v, want none before first blur", w.State().Errors)
	}
}

func TestWizardSession_BlurValidatesImmediately(t *testing.T) {
	w := newTestWizard(t)

	w.SetField(domain.FieldFirstName, "")
	w.Blur(domain.FieldFirstName)

	st := w.State()
	if st.Errors[domain.FieldFirstName] != domain.MsgFirstNameRequired {
		t.Errorf("error = %q, want %q", st.Errors[domain.FieldFirstName], domain.MsgFirstNameRequired)
	}
}

func TestWizardSession_TouchedFieldRevalidatesOnEdit(t *testing.T) {
	timers := &fakeTimers{}
	w := newTestWizard(t, WithTimerFactory(timers.factory))

	w.SetField(domain.FieldFirstName, "")
	w.Blur(domain.FieldFirstName)
	if w.State().Errors[domain.FieldFirstName] == "" {
		t.Fatal("expected error after blurring empty field")
	}

	// The field is touched now, so an edit schedules a revalidation that
	// clears the error once the quiet period elapses.
	w.SetField(domain.FieldFirstName, "Ada")
	if len(timers.created) != 1 {
		t.Fatalf("created %d timers, want 1", len(timers.created))
	}
	timers.fire(0)
	if msg := w.State().Errors[domain.FieldFirstName]; msg != "" {
		t.Errorf("error = %q, want cleared after valid edit", msg)
	}
}

func TestWizardSession_BlurCancelsPendingRun(t *testing.T) {
	timers := &fakeTimers{}
	w := newTestWizard(t, WithTimerFactory(timers.factory))

	w.SetField(domain.FieldFirstName, "x")
	w.Blur(domain.FieldFirstName)

	// Touched now; the next edit schedules a run, and the following blur
	// must cancel it so only the immediate validation applies.
	w.SetField(domain.FieldFirstName, "Ada")
	if len(timers.created) != 1 {
		t.Fatalf("created %d timers, want 1", len(timers.created))
	}
	w.Blur(domain.FieldFirstName)
	if !timers.created[0].stopped {
		t.Error("pending debounced run not cancelled on blur")
	}
}

func TestWizardSession_NextBlockedByInvalidStep(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	err := w.Next(ctx)
	var vErr *domain.ValidationFailedError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationFailedError, got %v", err)
	}
	if vErr.Step != domain.StepEssential {
		t.Errorf("step = %q, want %q", vErr.Step, domain.StepEssential)
	}
	if vErr.Fields[domain.FieldFirstName] != domain.MsgFirstNameRequired {
		t.Errorf("fields = %v, want first name required", vErr.Fields)
	}
	if w.Step() != domain.StepEssential {
		t.Errorf("step advanced to %q despite validation failure", w.Step())
	}
}

func TestWizardSession_NextAdvancesAndMarksCompleted(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	fillEssential(w)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if w.Step() != domain.StepPersonal {
		t.Errorf("step = %q, want %q", w.Step(), domain.StepPersonal)
	}

	st := w.State()
	found := false
	for _, s := range st.Completed {
		if s == domain.StepPersonal {
			found = true
		}
	}
	if !found {
		t.Errorf("completed = %v, want personal included", st.Completed)
	}
}

func TestWizardSession_NextAtFinalStep(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	fillEssential(w)
	fillPersonal(w)
	for i := 0; i < len(domain.StepOrder)-1; i++ {
		if err := w.Next(ctx); err != nil {
			t.Fatalf("next from %q: %v", w.Step(), err)
		}
	}
	if w.Step() != domain.LastStep() {
		t.Fatalf("step = %q, want %q", w.Step(), domain.LastStep())
	}

	if err := w.Next(ctx); !errors.Is(err, domain.ErrAtFinalStep) {
		t.Errorf("err = %v, want ErrAtFinalStep", err)
	}
}

func TestWizardSession_BackNeverValidates(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	fillEssential(w)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}

	// Invalidate the current step, then go back: must succeed.
	w.SetField(domain.FieldDateOfBirth, "not-a-date")
	if err := w.Back(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if w.Step() != domain.StepEssential {
		t.Errorf("step = %q, want %q", w.Step(), domain.StepEssential)
	}
}

func TestWizardSession_BackOnFirstStepIsNoop(t *testing.T) {
	w := newTestWizard(t)

	if err := w.Back(context.Background()); err != nil {
		t.Fatalf("back: %v", err)
	}
	if w.Step() != domain.FirstStep() {
		t.Errorf("step = %q, want first step", w.Step())
	}
}

func TestWizardSession_GoToStep(t *testing.T) {
	w := newTestWizard(t)
	ctx := context.Background()

	fillEssential(w)
	fillPersonal(w)
	if err := w.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	if err := w.Next(ctx); err != nil {
		t.Fatalf("next: %v", err)
	}
	// Now on location with essential, personal, location completed.

	// Relationship is exactly one past the current step, so the jump is
	// allowed and marks it completed.
	w.GoToStep(domain.StepRelationship)
	if w.Step() != domain.StepRelationship {
		t.Errorf("step = %q, want relationship (immediate next)", w.Step())
	}

	// Back to a completed step is always allowed.
	w.GoToStep(domain.StepEssential)
	if w.Step() != domain.StepEssential {
		t.Errorf("step = %q, want essential", w.Step())
	}

	// Relationship was marked completed above, so jumping forward past
	// intermediate steps is now allowed.
	w.GoToStep(domain.StepRelationship)
	if w.Step() != domain.StepRelationship {
		t.Errorf("step = %q, want relationship (previously completed)", w.Step())
	}

	// Unknown step is ignored.
	w.GoToStep(domain.Step("bogus"))
	if w.Step() != domain.StepRelationship {
		t.Errorf("step = %q, unknown target must be ignored", w.Step())
	}
}

func TestWizardSession_GoToStepUncompletedJumpIgnored(t *testing.T) {
	w := newTestWizard(t)

	w.GoToStep(domain.StepLocation)
	if w.Step() != domain.FirstStep() {
		t.Errorf("step = %q, jump past the next step must be ignored", w.Step())
	}
}

func TestWizardSession_StateErrorsOnlyForTouchedFields(t *testing.T) {
	w := newTestWizard(t)

	// A failed Next records errors for the whole step internally, but the
	// snapshot only exposes errors for fields the user has touched.
	w.Blur(domain.FieldLastName) // touched, valid (optional)
	if err := w.Next(context.Background()); err == nil {
		t.Fatal("expected validation failure")
	}

	st := w.State()
	if _, ok := st.Errors[domain.FieldFirstName]; ok {
		t.Errorf("untouched first_name error leaked into state: %v", st.Errors)
	}

	w.Blur(domain.FieldFirstName)
	st = w.State()
	if st.Errors[domain.FieldFirstName] != domain.MsgFirstNameRequired {
		t.Errorf("touched first_name error missing from state: %v", st.Errors)
	}
}

func TestWizardSession_SeededDraft(t *testing.T) {
	seed := domain.Draft{domain.FieldFirstName: "Ada", domain.FieldCity: "Paris"}
	sched := NewScheduler(DefaultQuietPeriod)
	w := NewWizardSession(testSession(), seed, stubNavigator{}, sched, testNow)

	d := w.Draft()
	if d[domain.FieldFirstName] != "Ada" || d[domain.FieldCity] != "Paris" {
		t.Errorf("draft = %v, want seeded values", d)
	}

	// Draft returns a copy.
	d[domain.FieldFirstName] = "Eve"
	if w.Draft()[domain.FieldFirstName] != "Ada" {
		t.Error("mutating the returned draft changed the session")
	}
}

func TestWizardSession_SetSubmitting(t *testing.T) {
	w := newTestWizard(t)

	if !w.setSubmitting(true) {
		t.Fatal("first setSubmitting(true) rejected")
	}
	if w.setSubmitting(true) {
		t.Error("second setSubmitting(true) accepted while in flight")
	}
	if !w.State().Submitting {
		t.Error("state does not report submitting")
	}
	w.setSubmitting(false)
	if !w.setSubmitting(true) {
		t.Error("setSubmitting(true) rejected after clearing")
	}
}
