package domain_test

import (
	"testing"

	"github.com/pairprep/pairprep/internal/domain"
)

func TestStepOrder(t *testing.T) {
	want := []domain.Step{
		domain.StepEssential,
		domain.StepPersonal,
		domain.StepLocation,
		domain.StepRelationship,
	}
	if len(domain.StepOrder) != len(want) {
		t.Fatalf("got %d steps, want %d", len(domain.StepOrder), len(want))
	}
	for i, s := range want {
		if domain.StepOrder[i] != s {
			t.Errorf("StepOrder[%d] = %q, want %q", i, domain.StepOrder[i], s)
		}
	}
	if domain.FirstStep() != domain.StepEssential {
		t.Errorf("FirstStep = %q, want %q", domain.FirstStep(), domain.StepEssential)
	}
	if domain.LastStep() != domain.StepRelationship {
		t.Errorf("LastStep = %q, want %q", domain.LastStep(), domain.StepRelationship)
	}
}

func TestStepTransitions_AdjacentOnly(t *testing.T) {
	for _, tr := range domain.StepTransitions {
		src := domain.StepIndex(tr.Src)
		dst := domain.StepIndex(tr.Dst)
		switch tr.Event {
		case domain.EventNext:
			if dst != src+1 {
				t.Errorf("next from %q goes to %q, want the following step", tr.Src, tr.Dst)
			}
		case domain.EventBack:
			if dst != src-1 {
				t.Errorf("back from %q goes to %q, want the preceding step", tr.Src, tr.Dst)
			}
		default:
			t.Errorf("unexpected event %q", tr.Event)
		}
	}
}

func TestStepFields_CoverEveryField(t *testing.T) {
	owned := make(map[domain.Field]bool)
	for _, step := range domain.StepOrder {
		for _, f := range domain.StepFields(step) {
			owned[f] = true
		}
	}

	// Country and the partner flag are inputs to sibling rules, not
	// validated fields of their own.
	implicit := map[domain.Field]bool{
		domain.FieldCountry:      true,
		domain.FieldPartnerUsing: true,
	}

	for _, f := range domain.Fields {
		if !owned[f] && !implicit[f] {
			t.Errorf("field %q is not owned by any step", f)
		}
	}
}

func TestStepIndex_Unknown(t *testing.T) {
	if got := domain.StepIndex("payment"); got != -1 {
		t.Errorf("StepIndex(payment) = %d, want -1", got)
	}
}
