package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/pairprep/pairprep/internal/domain"
)

// Compile-time check: Navigator implements domain.StepNavigator.
var _ domain.StepNavigator = (*Navigator)(nil)

// events converts domain.StepTransitions into looplab/fsm EventDesc format.
// Transitions with the same event+destination collapse into a single
// EventDesc with multiple source steps.
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range domain.StepTransitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Navigator validates wizard navigation using looplab/fsm. It creates a
// short-lived FSM instance per Apply call, initialized with the session's
// current step, because looplab/fsm tracks the current state internally.
type Navigator struct{}

// New creates a new FSM-backed step navigator.
func New() *Navigator {
	return &Navigator{}
}

// Apply checks if the given event is valid from the current step and
// returns the destination step. Returns a domain.StepTransitionError if
// the navigation is not allowed.
func (n *Navigator) Apply(ctx context.Context, current domain.Step, event domain.Event) (domain.Step, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", &domain.StepTransitionError{
				Event:   event,
				Current: current,
			}
		}
		return "", err
	}

	return domain.Step(machine.Current()), nil
}
