package registration

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

// EventLookup loads live events. event.Repository satisfies it.
type EventLookup interface {
	GetLive(ctx context.Context, id uint) (*event.Event, error)
}

type Service interface {
	Register(ctx context.Context, user auth.User, eventID uint) (*Registration, error)
	Unregister(ctx context.Context, userID, eventID uint) error
	CheckIn(ctx context.Context, staff auth.User, eventID uint, ticketCode string) (*Registration, error)
	GetUserRegistrations(ctx context.Context, userID uint) ([]Registration, error)
	GetRegistration(ctx context.Context, userID, eventID uint) (*Registration, error)
	IsRegistered(ctx context.Context, userID, eventID uint) (bool, error)
}

type service struct {
	repo   Repository
	events EventLookup
	audit  auditlog.Service
	clock  utils.Clock
	log    zerolog.Logger
}

func NewService(repo Repository, events EventLookup, audit auditlog.Service, clock utils.Clock, log zerolog.Logger) Service {
	return &service{
		repo:   repo,
		events: events,
		audit:  audit,
		clock:  clock,
		log:    log.With().Str("component", "registrations").Logger(),
	}
}

func (s *service) Register(ctx context.Context, user auth.User, eventID uint) (*Registration, error) {
	ev, err := s.events.GetLive(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	if ev.AuthorID == user.ID {
		return nil, apperror.Forbidden(apperror.CodeSelfRegistration, "You cannot register for your own event")
	}
	if !s.clock.Now().Before(ev.StartsAt) {
		return nil, apperror.Validation(apperror.CodeEventStarted, "This event has already started")
	}
	if _, err := s.repo.Find(ctx, user.ID, eventID); err == nil {
		return nil, errAlreadyRegistered()
	} else if !database.IsNotFound(err) {
		return nil, apperror.Internal(err)
	}

	reg := &Registration{UserID: user.ID, EventID: eventID, TicketCode: uuid.NewString()}
	if err := s.repo.Create(ctx, reg); err != nil {
		switch {
		case errors.Is(err, ErrEventFull):
			return nil, apperror.Conflict(apperror.CodeEventFull, "This event is full")
		case database.IsUniqueViolation(err):
			return nil, errAlreadyRegistered()
		}
		return nil, apperror.Internal(err)
	}

	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &user.ID,
		EventID: &eventID,
		Action:  auditlog.ActionRegistrationCreated,
		Details: map[string]interface{}{"registration_id": reg.ID},
	})
	s.log.Info().Uint("user_id", user.ID).Uint("event_id", eventID).Msg("🎟️ registered")
	return reg, nil
}

func (s *service) Unregister(ctx context.Context, userID, eventID uint) error {
	if err := s.repo.Delete(ctx, userID, eventID); err != nil {
		return notFoundOr(err, "You are not registered for this event")
	}
	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &userID,
		EventID: &eventID,
		Action:  auditlog.ActionRegistrationCanceled,
	})
	return nil
}

// CheckIn validates a ticket at the door. Only members of the organizing
// organization may check people in.
func (s *service) CheckIn(ctx context.Context, staff auth.User, eventID uint, ticketCode string) (*Registration, error) {
	ev, err := s.events.GetLive(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	if !staff.MatchesOrganizer(ev.Organizer.Represents, ev.Organizer.OrganizationName) {
		return nil, apperror.Forbidden(apperror.CodeAffiliationMismatch, "You can only check in attendees of your organization's events")
	}
	if ev.Status != event.StatusApproved {
		return nil, apperror.Forbidden(apperror.CodeEventNotApproved, "Event is not approved")
	}

	reg, err := s.repo.FindByTicket(ctx, strings.TrimSpace(ticketCode))
	if err != nil {
		return nil, notFoundOr(err, "Ticket not found")
	}
	if reg.EventID != ev.ID {
		return nil, apperror.Validation(apperror.CodeTicketEventMismatch, "This ticket belongs to a different event")
	}
	if reg.HasCheckedIn {
		return nil, errAlreadyCheckedIn()
	}

	now := s.clock.Now()
	if now.Before(ev.StartsAt.Add(-CheckInOpensBefore)) {
		return nil, apperror.Validation(apperror.CodeCheckInNotOpen, "Check-in opens 3 hours before the event starts")
	}
	if now.After(ev.StartsAt.Add(CheckInClosesAfter)) {
		return nil, apperror.Validation(apperror.CodeCheckInExpired, "The check-in window for this event has closed")
	}

	if err := s.repo.MarkCheckedIn(ctx, reg.ID, now); err != nil {
		if errors.Is(err, ErrAlreadyCheckedIn) {
			return nil, errAlreadyCheckedIn()
		}
		return nil, apperror.Internal(err)
	}
	reg.HasCheckedIn = true
	reg.CheckedInAt = &now

	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &staff.ID,
		EventID: &eventID,
		Action:  auditlog.ActionCheckIn,
		Details: map[string]interface{}{"registration_id": reg.ID, "attendee_id": reg.UserID},
	})
	return reg, nil
}

// GetUserRegistrations lists the user's tickets, skipping ones whose event is gone.
func (s *service) GetUserRegistrations(ctx context.Context, userID uint) ([]Registration, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make([]Registration, 0, len(items))
	for _, reg := range items {
		if reg.Event == nil {
			continue
		}
		out = append(out, reg)
	}
	return out, nil
}

func (s *service) GetRegistration(ctx context.Context, userID, eventID uint) (*Registration, error) {
	reg, err := s.repo.Find(ctx, userID, eventID)
	if err != nil {
		return nil, notFoundOr(err, "Registration not found")
	}
	if reg.Event == nil {
		return nil, apperror.NotFound("Registration not found")
	}
	return reg, nil
}

func (s *service) IsRegistered(ctx context.Context, userID, eventID uint) (bool, error) {
	if _, err := s.repo.Find(ctx, userID, eventID); err != nil {
		if database.IsNotFound(err) {
			return false, nil
		}
		return false, apperror.Internal(err)
	}
	return true, nil
}

func errAlreadyRegistered() error {
	return apperror.Conflict(apperror.CodeAlreadyRegistered, "You are already registered for this event")
}

func errAlreadyCheckedIn() error {
	return apperror.Conflict(apperror.CodeAlreadyCheckedIn, "This ticket has already been checked in")
}

func notFoundOr(err error, msg string) error {
	if database.IsNotFound(err) {
		return apperror.NotFound(msg)
	}
	return apperror.Internal(err)
}
