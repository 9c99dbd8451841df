package reports

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

type EventLookup interface {
	GetLive(ctx context.Context, id uint) (*event.Event, error)
}

type Service interface {
	Participants(ctx context.Context, viewer auth.User, eventID uint, page, limit int) (*ParticipantsPage, error)
	Export(ctx context.Context, viewer auth.User, eventID uint, format string) ([]byte, string, string, error)
	Statistics(ctx context.Context, viewer auth.User, eventID uint) (*EventStatistics, error)
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	repo     Repository
	events   EventLookup
	exporter ParticipantExporter
	audit    auditlog.Service
	clock    utils.Clock
	log      zerolog.Logger
}

func NewService(repo Repository, events EventLookup, exporter ParticipantExporter, audit auditlog.Service, clock utils.Clock, log zerolog.Logger) Service {
	return &service{
		repo:     repo,
		events:   events,
		exporter: exporter,
		audit:    audit,
		clock:    clock,
		log:      log.With().Str("component", "reports").Logger(),
	}
}

// authorize loads the event and checks the viewer speaks for its organizer.
func (s *service) authorize(ctx context.Context, viewer auth.User, eventID uint, action string) (*event.Event, error) {
	ev, err := s.events.GetLive(ctx, eventID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Event not found.")
		}
		return nil, apperror.Internal(err)
	}
	if !viewer.MatchesOrganizer(ev.Organizer.Represents, ev.Organizer.OrganizationName) {
		return nil, apperror.Forbidden(apperror.CodeAffiliationMismatch, fmt.Sprintf("You are not authorized to %s for this event.", action))
	}
	return ev, nil
}

func (s *service) Participants(ctx context.Context, viewer auth.User, eventID uint, page, limit int) (*ParticipantsPage, error) {
	if _, err := s.authorize(ctx, viewer, eventID, "view participants"); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultParticipantLimit
	}
	if limit > MaxParticipantLimit {
		limit = MaxParticipantLimit
	}

	rows, total, err := s.repo.Participants(ctx, eventID, (page-1)*limit, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &ParticipantsPage{
		EventID:      eventID,
		Participants: toParticipants(rows),
		Total:        total,
		Page:         page,
		Limit:        limit,
	}, nil
}

func (s *service) Export(ctx context.Context, viewer auth.User, eventID uint, format string) ([]byte, string, string, error) {
	switch format {
	case FormatCSV, FormatExcel, FormatPDF:
	default:
		return nil, "", "", apperror.Validation(apperror.CodeInvalidInput, "format must be csv, xlsx or pdf")
	}
	ev, err := s.authorize(ctx, viewer, eventID, "export participants")
	if err != nil {
		return nil, "", "", err
	}
	rows, _, err := s.repo.Participants(ctx, eventID, 0, 0)
	if err != nil {
		return nil, "", "", apperror.Internal(err)
	}

	meta := ExportMeta{
		EventTitle:  ev.Title,
		GeneratedBy: fmt.Sprintf("%s (%s)", viewer.FullName, viewer.Email),
		GeneratedAt: s.clock.Now(),
	}
	data, name, mime, err := s.exporter.Export(format, meta, toParticipants(rows))
	if err != nil {
		return nil, "", "", apperror.Internal(err)
	}

	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &viewer.ID,
		EventID: &eventID,
		Action:  auditlog.ActionParticipantsExported,
		Details: map[string]interface{}{"format": format, "rows": len(rows)},
	})
	return data, name, mime, nil
}

func (s *service) Statistics(ctx context.Context, viewer auth.User, eventID uint) (*EventStatistics, error) {
	if _, err := s.authorize(ctx, viewer, eventID, "see event statistics"); err != nil {
		return nil, err
	}
	_, total, err := s.repo.Participants(ctx, eventID, 0, 1)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	checkedIn, err := s.repo.CountCheckedIn(ctx, eventID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	reviews, avg, err := s.repo.RatingSummary(ctx, eventID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &EventStatistics{
		TotalParticipants: total,
		CheckedIn:         checkedIn,
		EngagementRate:    percent(checkedIn, total),
		ReviewCount:       reviews,
		AverageRating:     avg,
	}, nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	now := s.clock.Now()
	lastFrom, lastTo := LastMonth(now)
	yearFrom, yearTo := AcademicYear(now)

	total, err := s.repo.CountEvents(ctx, nil, nil)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	lastMonth, err := s.repo.CountEvents(ctx, &lastFrom, &lastTo)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	capacity, err := s.repo.TotalCapacity(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	registrations, err := s.repo.CountRegistrations(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	monthly, err := s.repo.EventsPerMonth(ctx, yearFrom, yearTo)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	top, err := s.repo.TopOrganizations(ctx, 3)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Overview{
		TotalEvents:      total,
		EventsLastMonth:  lastMonth,
		AverageOccupancy: percent(registrations, capacity),
		MonthlyActivity:  fillMonths(monthly),
		TopOrganizations: top,
	}, nil
}

func toParticipants(rows []ParticipantRow) []Participant {
	out := make([]Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Participant())
	}
	return out
}

func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
