package review

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

type EventLookup interface {
	GetLive(ctx context.Context, id uint) (*event.Event, error)
}

// RegistrationCheck reports whether the user holds a registration for the event.
type RegistrationCheck interface {
	IsRegistered(ctx context.Context, userID, eventID uint) (bool, error)
}

type Service interface {
	AddReview(ctx context.Context, userID, eventID uint, in AddReviewInput) (*ReviewResponse, error)
	DeleteReview(ctx context.Context, userID, reviewID uint) error
	ListForEvent(ctx context.Context, eventID uint) ([]ReviewResponse, error)
}

type service struct {
	repo          Repository
	events        EventLookup
	registrations RegistrationCheck
	clock         utils.Clock
	log           zerolog.Logger
}

func NewService(repo Repository, events EventLookup, registrations RegistrationCheck, clock utils.Clock, log zerolog.Logger) Service {
	return &service{
		repo:          repo,
		events:        events,
		registrations: registrations,
		clock:         clock,
		log:           log.With().Str("component", "reviews").Logger(),
	}
}

func (s *service) AddReview(ctx context.Context, userID, eventID uint, in AddReviewInput) (*ReviewResponse, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "Rating must be between 1 and 5")
	}
	var comment *string
	if in.Comment != nil {
		c := strings.TrimSpace(*in.Comment)
		if len(c) > MaxCommentLength {
			return nil, apperror.Validation(apperror.CodeInvalidInput, "Comment is too long (max 500 chars)")
		}
		if c != "" {
			comment = &c
		}
	}

	ev, err := s.events.GetLive(ctx, eventID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Event not found")
		}
		return nil, apperror.Internal(err)
	}
	reviewed, err := s.repo.Exists(ctx, userID, eventID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if reviewed {
		return nil, apperror.Conflict(apperror.CodeDuplicate, "You have already reviewed this event")
	}
	registered, err := s.registrations.IsRegistered(ctx, userID, eventID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !registered {
		return nil, apperror.NotFound("The user has not registered for this event")
	}
	if s.clock.Now().Before(ev.StartsAt) {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "You cannot leave a review until the event has started.")
	}

	rv := &Review{UserID: userID, EventID: eventID, Rating: in.Rating, Comment: comment}
	if err := s.repo.Create(ctx, rv); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeDuplicate, "You have already reviewed this event")
		}
		return nil, apperror.Internal(err)
	}
	s.log.Info().Uint("event_id", eventID).Int("rating", in.Rating).Msg("⭐ review added")
	out := rv.Response()
	return &out, nil
}

func (s *service) DeleteReview(ctx context.Context, userID, reviewID uint) error {
	rv, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if database.IsNotFound(err) {
			return apperror.NotFound("Review not found")
		}
		return apperror.Internal(err)
	}
	if rv.UserID != userID {
		return apperror.Forbidden(apperror.CodeForbidden, "You do not have permission to delete this review")
	}
	if err := s.repo.Delete(ctx, rv); err != nil {
		if database.IsNotFound(err) {
			return apperror.NotFound("Review not found")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (s *service) ListForEvent(ctx context.Context, eventID uint) ([]ReviewResponse, error) {
	items, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make([]ReviewResponse, 0, len(items))
	for _, rv := range items {
		out = append(out, rv.Response())
	}
	return out, nil
}
