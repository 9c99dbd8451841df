package favorite

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
)

// EventLookup is satisfied by event.Repository.
type EventLookup interface {
	GetLive(ctx context.Context, id uint) (*event.Event, error)
}

type Service interface {
	Mark(ctx context.Context, userID, eventID uint) (*Favorite, error)
	Unmark(ctx context.Context, userID, eventID uint) error
	IsFavorite(ctx context.Context, userID, eventID uint) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]Favorite, error)
}

type service struct {
	repo   Repository
	events EventLookup
	log    zerolog.Logger
}

func NewService(repo Repository, events EventLookup, log zerolog.Logger) Service {
	return &service{repo: repo, events: events, log: log.With().Str("component", "favorites").Logger()}
}

func (s *service) Mark(ctx context.Context, userID, eventID uint) (*Favorite, error) {
	if _, err := s.events.GetLive(ctx, eventID); err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Event not found")
		}
		return nil, apperror.Internal(err)
	}
	fav := &Favorite{UserID: userID, EventID: eventID}
	if err := s.repo.Create(ctx, fav); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict(apperror.CodeDuplicate, "Event is already in your favorites")
		}
		return nil, apperror.Internal(err)
	}
	return fav, nil
}

func (s *service) Unmark(ctx context.Context, userID, eventID uint) error {
	if err := s.repo.Delete(ctx, userID, eventID); err != nil {
		if database.IsNotFound(err) {
			return apperror.NotFound("Event is not in your favorites")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (s *service) IsFavorite(ctx context.Context, userID, eventID uint) (bool, error) {
	ok, err := s.repo.Exists(ctx, userID, eventID)
	if err != nil {
		return false, apperror.Internal(err)
	}
	return ok, nil
}

// ListForUser drops favorites whose event no longer exists.
func (s *service) ListForUser(ctx context.Context, userID uint) ([]Favorite, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := items[:0]
	for _, f := range items {
		if f.Event != nil {
			out = append(out, f)
		}
	}
	return out, nil
}
