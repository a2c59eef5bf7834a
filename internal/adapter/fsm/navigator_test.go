package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/pairprep/pairprep/internal/adapter/fsm"
	"github.com/pairprep/pairprep/internal/domain"
)

func TestNavigator_AllTransitions(t *testing.T) {
	n := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.StepTransitions {
		dst, err := n.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestNavigator_NoNextFromLastStep(t *testing.T) {
	n := adapter.New()
	ctx := context.Background()

	_, err := n.Apply(ctx, domain.LastStep(), domain.EventNext)
	var trErr *domain.StepTransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected StepTransitionError, got %v", err)
	}
	if trErr.Event != domain.EventNext {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventNext)
	}
	if trErr.Current != domain.LastStep() {
		t.Errorf("current = %q, want %q", trErr.Current, domain.LastStep())
	}
}

func TestNavigator_NoBackFromFirstStep(t *testing.T) {
	n := adapter.New()
	ctx := context.Background()

	_, err := n.Apply(ctx, domain.FirstStep(), domain.EventBack)
	var trErr *domain.StepTransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected StepTransitionError, got %v", err)
	}
}

func TestNavigator_FullWalk(t *testing.T) {
	n := adapter.New()
	ctx := context.Background()

	// Forward through every step, then all the way back.
	current := domain.FirstStep()
	for current != domain.LastStep() {
		next, err := n.Apply(ctx, current, domain.EventNext)
		if err != nil {
			t.Fatalf("next from %q: %v", current, err)
		}
		current = next
	}
	for current != domain.FirstStep() {
		prev, err := n.Apply(ctx, current, domain.EventBack)
		if err != nil {
			t.Fatalf("back from %q: %v", current, err)
		}
		current = prev
	}
}
