package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pairprep/pairprep/internal/domain"
)

const tracerName = "github.com/pairprep/pairprep/internal/adapter/otel"

// TracingProfileRepository wraps a domain.ProfileRepository with
// OpenTelemetry tracing. Each method creates a span with semantic
// attributes and records errors. The submission pipeline's fallback chain
// (update, insert, upsert) shows up as sibling spans on the same trace.
type TracingProfileRepository struct {
	next   domain.ProfileRepository
	tracer trace.Tracer
}

// Compile-time check: TracingProfileRepository implements domain.ProfileRepository.
var _ domain.ProfileRepository = (*TracingProfileRepository)(nil)

// NewTracingProfileRepository creates a tracing decorator around the given repository.
func NewTracingProfileRepository(next domain.ProfileRepository) *TracingProfileRepository {
	return &TracingProfileRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingProfileRepository) Update(ctx context.Context, profile domain.Profile) error {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.Update",
		trace.WithAttributes(
			attribute.String("profile.user_id", profile.UserID),
			attribute.Bool("profile.complete", profile.Complete()),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingProfileRepository) Insert(ctx context.Context, profile domain.Profile) error {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.Insert",
		trace.WithAttributes(attribute.String("profile.user_id", profile.UserID)),
	)
	defer span.End()

	err := r.next.Insert(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingProfileRepository) Upsert(ctx context.Context, profile domain.Profile) error {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.Upsert",
		trace.WithAttributes(attribute.String("profile.user_id", profile.UserID)),
	)
	defer span.End()

	err := r.next.Upsert(ctx, profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingProfileRepository) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.GetByUserID",
		trace.WithAttributes(attribute.String("profile.user_id", userID)),
	)
	defer span.End()

	profile, err := r.next.GetByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return profile, err
}

func (r *TracingProfileRepository) GetPartnerID(ctx context.Context, userID string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "ProfileRepository.GetPartnerID",
		trace.WithAttributes(attribute.String("profile.user_id", userID)),
	)
	defer span.End()

	id, err := r.next.GetPartnerID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Bool("profile.partner_linked", id != ""))
	}
	return id, err
}

// TracingInvitationRepository wraps a domain.InvitationRepository with
// OpenTelemetry tracing.
type TracingInvitationRepository struct {
	next   domain.InvitationRepository
	tracer trace.Tracer
}

// Compile-time check: TracingInvitationRepository implements domain.InvitationRepository.
var _ domain.InvitationRepository = (*TracingInvitationRepository)(nil)

// NewTracingInvitationRepository creates a tracing decorator around the given repository.
func NewTracingInvitationRepository(next domain.InvitationRepository) *TracingInvitationRepository {
	return &TracingInvitationRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingInvitationRepository) FindPending(ctx context.Context, inviterID string) (domain.Invitation, error) {
	ctx, span := r.tracer.Start(ctx, "InvitationRepository.FindPending",
		trace.WithAttributes(attribute.String("invitation.inviter_id", inviterID)),
	)
	defer span.End()

	inv, err := r.next.FindPending(ctx, inviterID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return inv, err
}

func (r *TracingInvitationRepository) Create(ctx context.Context, inv domain.Invitation) error {
	ctx, span := r.tracer.Start(ctx, "InvitationRepository.Create",
		trace.WithAttributes(
			attribute.String("invitation.id", inv.ID),
			attribute.String("invitation.inviter_id", inv.InviterID),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, inv)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
