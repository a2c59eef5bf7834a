package domain

// Step represents one named stage of the profile-setup wizard.
type Step string

const (
	StepEssential    Step = "essential"
	StepPersonal     Step = "personal"
	StepLocation     Step = "location"
	StepRelationship Step = "relationship"
)

// StepOrder is the fixed sequence the wizard walks through.
var StepOrder = []Step{StepEssential, StepPersonal, StepLocation, StepRelationship}

// Event represents a navigation action on the wizard.
type Event string

const (
	EventNext Event = "next"
	EventBack Event = "back"
)

// StepTransition defines a valid navigation: an event moves the wizard from Src to Dst.
type StepTransition struct {
	Event Event
	Src   Step
	Dst   Step
}

// StepTransitions defines all valid adjacent navigations. Jumps to
// previously completed steps are guarded separately by the session,
// not by the machine. This is domain knowledge consumed by the FSM adapter.
var StepTransitions = buildStepTransitions()

func buildStepTransitions() []StepTransition {
	out := make([]StepTransition, 0, 2*(len(StepOrder)-1))
	for i := 0; i < len(StepOrder)-1; i++ {
		out = append(out, StepTransition{Event: EventNext, Src: StepOrder[i], Dst: StepOrder[i+1]})
	}
	for i := len(StepOrder) - 1; i > 0; i-- {
		out = append(out, StepTransition{Event: EventBack, Src: StepOrder[i], Dst: StepOrder[i-1]})
	}
	return out
}

// StepIndex returns the position of a step in StepOrder, or -1 if unknown.
func StepIndex(step Step) int {
	for i, s := range StepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// FirstStep returns the initial wizard step.
func FirstStep() Step { return StepOrder[0] }

// LastStep returns the final wizard step, the one submission runs from.
func LastStep() Step { return StepOrder[len(StepOrder)-1] }

// StepFields maps each step to the fields it owns. Step-level validation
// aggregates exactly these fields.
func StepFields(step Step) []Field {
	switch step {
	case StepEssential:
		return []Field{FieldFirstName, FieldLastName}
	case StepPersonal:
		return []Field{FieldDateOfBirth, FieldGender, FieldMaritalStatus}
	case StepLocation:
		return []Field{FieldCity}
	case StepRelationship:
		return []Field{FieldPartnerName, FieldWeddingDate, FieldPartnerEmail}
	default:
		return nil
	}
}
