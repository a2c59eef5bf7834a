package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pairprep/pairprep/internal/app"
	"github.com/pairprep/pairprep/internal/domain"
)

// WizardStateResponse is the API representation of a wizard session.
// Errors only carry touched fields; untouched fields never surface their
// messages even when step validation has recorded them.
type WizardStateResponse struct {
	Step       string            `json:"step" doc:"Current wizard step"`
	Fields     map[string]string `json:"fields" doc:"Entered values keyed by field name"`
	Errors     map[string]string `json:"errors" doc:"Visible validation messages keyed by field name"`
	Completed  []string          `json:"completed_steps" doc:"Steps available for backward navigation"`
	Submitting bool              `json:"submitting" doc:"Whether a submission is in flight"`
}

func toStateResponse(st app.WizardState) WizardStateResponse {
	resp := WizardStateResponse{
		Step:      string(st.Step),
		Fields:    make(map[string]string, len(st.Draft)),
		Errors:    make(map[string]string, len(st.Errors)),
		Completed: make([]string, 0, len(st.Completed)),
	}
	for f, v := range st.Draft {
		resp.Fields[string(f)] = v
	}
	for f, msg := range st.Errors {
		resp.Errors[string(f)] = msg
	}
	for _, s := range st.Completed {
		resp.Completed = append(resp.Completed, string(s))
	}
	resp.Submitting = st.Submitting
	return resp
}

// sessionFrom builds the injected identity from request headers. A real
// deployment terminates auth upstream and forwards the verified identity;
// the wizard itself never reads ambient auth state.
func sessionFrom(userID, email string) app.Session {
	return app.Session{UserID: userID, Email: email}
}

// --- Start wizard ---

type StartWizardInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	Email  string `header:"X-User-Email" doc:"Authenticated user email"`
}

type StartWizardOutput struct {
	Body WizardStateResponse
}

// --- Get state ---

type GetWizardInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
}

type GetWizardOutput struct {
	Body WizardStateResponse
}

// --- Set field ---

type SetFieldInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	Field  string `path:"field" doc:"Field name"`
	Body   struct {
		Value string `json:"value" doc:"New field value"`
	}
}

type SetFieldOutput struct {
	Body WizardStateResponse
}

// --- Blur field ---

type BlurFieldInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	Field  string `path:"field" doc:"Field name"`
}

type BlurFieldOutput struct {
	Body WizardStateResponse
}

// --- Navigation ---

type NavigateInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	Body   struct {
		Event string `json:"event" doc:"Navigation event" enum:"next,back,goto"`
		Step  string `json:"step,omitempty" doc:"Target step, required for goto"`
	}
}

type NavigateOutput struct {
	Body WizardStateResponse
}

// --- Submit ---

type SubmitInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user ID"`
	Email  string `header:"X-User-Email" doc:"Authenticated user email"`
}

type SubmitResponse struct {
	ProfileComplete bool         `json:"profile_complete" doc:"Whether the profile satisfies the routing gate"`
	Trace           []StageTrace `json:"trace" doc:"Stage-by-stage submission trace"`
}

// StageTrace is one time-boxed operation in the submission trace.
type StageTrace struct {
	Name     string `json:"name"`
	Ok       bool   `json:"ok"`
	TimedOut bool   `json:"timed_out,omitempty"`
	Error    string `json:"error,omitempty"`
}

type SubmitOutput struct {
	Body SubmitResponse
}

// Register adds all wizard API routes to the Huma API.
func Register(api huma.API, svc *app.WizardService) {
	huma.Register(api, huma.Operation{
		OperationID: "start-wizard",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard",
		Summary:     "Start or resume the profile-setup wizard",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *StartWizardInput) (*StartWizardOutput, error) {
		ws, err := svc.Start(ctx, sessionFrom(input.UserID, input.Email))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StartWizardOutput{Body: toStateResponse(ws.State())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-wizard",
		Method:      http.MethodGet,
		Path:        "/api/v1/wizard",
		Summary:     "Get the current wizard state",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *GetWizardInput) (*GetWizardOutput, error) {
		ws, err := svc.Get(input.UserID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetWizardOutput{Body: toStateResponse(ws.State())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-wizard-field",
		Method:      http.MethodPut,
		Path:        "/api/v1/wizard/fields/{field}",
		Summary:     "Set a field value",
		Description: "Records the value and, for touched fields, schedules debounced validation.",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *SetFieldInput) (*SetFieldOutput, error) {
		ws, err := svc.Get(input.UserID)
		if err != nil {
			return nil, toHumaError(err)
		}
		field := domain.Field(input.Field)
		if !domain.KnownField(field) {
			return nil, huma.Error422UnprocessableEntity("unknown field " + input.Field)
		}
		ws.SetField(field, input.Body.Value)
		return &SetFieldOutput{Body: toStateResponse(ws.State())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "blur-wizard-field",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/fields/{field}/blur",
		Summary:     "Mark a field touched and validate it immediately",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *BlurFieldInput) (*BlurFieldOutput, error) {
		ws, err := svc.Get(input.UserID)
		if err != nil {
			return nil, toHumaError(err)
		}
		field := domain.Field(input.Field)
		if !domain.KnownField(field) {
			return nil, huma.Error422UnprocessableEntity("unknown field " + input.Field)
		}
		ws.Blur(field)
		return &BlurFieldOutput{Body: toStateResponse(ws.State())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "navigate-wizard",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/events",
		Summary:     "Trigger a navigation event",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *NavigateInput) (*NavigateOutput, error) {
		ws, err := svc.Get(input.UserID)
		if err != nil {
			return nil, toHumaError(err)
		}

		switch input.Body.Event {
		case "next":
			err = ws.Next(ctx)
		case "back":
			err = ws.Back(ctx)
		case "goto":
			ws.GoToStep(domain.Step(input.Body.Step))
		default:
			return nil, huma.Error422UnprocessableEntity("unknown event " + input.Body.Event)
		}
		if err != nil {
			return nil, toHumaError(err)
		}
		return &NavigateOutput{Body: toStateResponse(ws.State())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "submit-wizard",
		Method:      http.MethodPost,
		Path:        "/api/v1/wizard/submit",
		Summary:     "Persist the profile and run post-submission work",
		Tags:        []string{"Wizard"},
	}, func(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
		profile, trace, err := svc.Submit(ctx, sessionFrom(input.UserID, input.Email))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SubmitOutput{Body: SubmitResponse{
			ProfileComplete: profile.Complete(),
			Trace:           toStageTrace(trace),
		}}, nil
	})
}

func toStageTrace(trace []app.StageResult) []StageTrace {
	out := make([]StageTrace, len(trace))
	for i, st := range trace {
		out[i] = StageTrace{
			Name:     st.Name,
			Ok:       st.Err == nil,
			TimedOut: st.TimedOut,
		}
		if st.Err != nil {
			out[i].Error = st.Err.Error()
		}
	}
	return out
}

// toHumaError translates domain errors to Huma HTTP errors. Fatal
// persistence errors surface the underlying message verbatim; the user
// stays on the form with the draft intact.
func toHumaError(err error) error {
	if errors.Is(err, app.ErrNoActiveWizard) {
		return huma.Error404NotFound("no active wizard session")
	}

	if errors.Is(err, app.ErrSubmissionInFlight) {
		return huma.Error409Conflict(app.ErrSubmissionInFlight.Error())
	}

	if errors.Is(err, domain.ErrSessionIncomplete) {
		return huma.Error401Unauthorized("sign in to continue")
	}

	if errors.Is(err, domain.ErrSelfInvitation) {
		return huma.Error422UnprocessableEntity(domain.ErrSelfInvitation.Error())
	}

	if errors.Is(err, domain.ErrAtFinalStep) {
		return huma.Error422UnprocessableEntity(domain.ErrAtFinalStep.Error())
	}

	var vErr *domain.ValidationFailedError
	if errors.As(err, &vErr) {
		fields := make(map[string]any, len(vErr.Fields))
		for f, msg := range vErr.Fields {
			fields[string(f)] = msg
		}
		return huma.Error422UnprocessableEntity(vErr.Error(), &huma.ErrorDetail{
			Message:  "validation failed",
			Location: "body",
			Value:    fields,
		})
	}

	var trErr *domain.StepTransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var toErr *domain.TimeoutError
	if errors.As(err, &toErr) {
		return huma.Error504GatewayTimeout(toErr.Error())
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return huma.Error409Conflict(conflict.Error())
	}

	return huma.Error500InternalServerError(err.Error())
}
