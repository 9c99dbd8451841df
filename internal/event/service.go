package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/attachment"
	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/notification"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Notifier is the part of the notification dispatcher the lifecycle needs.
type Notifier interface {
	NotifyUser(ctx context.Context, in notification.CreateInput) (bool, error)
	ResolveAudience(ctx context.Context, eventID uint) (notification.Audience, error)
	NotifyEventUpdated(ctx context.Context, eventID uint, eventTitle string) (int, error)
	NotifyEventDeleted(ctx context.Context, audience notification.Audience, eventTitle string) int
}

type Service interface {
	CreateEvent(ctx context.Context, author auth.User, in CreateEventInput, files []attachment.Upload) (*PendingEvent, error)
	ProposeUpdate(ctx context.Context, author auth.User, eventID uint, in UpdateEventInput, files []attachment.Upload) (*PendingEvent, error)
	Approve(ctx context.Context, adminID, pendingID uint) (*Event, error)
	Reject(ctx context.Context, adminID, pendingID uint, reason string) (*RejectedEvent, error)
	DeleteEvent(ctx context.Context, actor auth.User, id uint) error

	GetEvent(ctx context.Context, id uint) (*Event, error)
	ListApproved(ctx context.Context, f Filter, page, limit int) (*Page[Event], error)
	ListPending(ctx context.Context) ([]PendingEvent, error)
	ListRejected(ctx context.Context) ([]RejectedEvent, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]Record, error)
	ListOrganizationEvents(ctx context.Context, user auth.User) ([]Event, error)
}

type Options struct {
	// DeleteWindow is how close to its start a live event stops being deletable.
	DeleteWindow time.Duration
	// Location interprets an event's date and "HH:MM" time of day.
	Location *time.Location
}

type service struct {
	repo     Repository
	files    *attachment.Manager
	notifier Notifier
	audit    auditlog.Service
	clock    utils.Clock
	opts     Options
	log      zerolog.Logger
}

func NewService(repo Repository, files *attachment.Manager, notifier Notifier, audit auditlog.Service, clock utils.Clock, opts Options, log zerolog.Logger) Service {
	if opts.DeleteWindow <= 0 {
		opts.DeleteWindow = 24 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &service{
		repo:     repo,
		files:    files,
		notifier: notifier,
		audit:    audit,
		clock:    clock,
		opts:     opts,
		log:      log.With().Str("component", "events").Logger(),
	}
}

// ===========================
// Proposals

func (s *service) CreateEvent(ctx context.Context, author auth.User, in CreateEventInput, files []attachment.Upload) (p *PendingEvent, err error) {
	defer func() {
		if err != nil {
			s.files.DeleteFiles(ctx, attachment.StoredNames(files))
			s.audit.LogAction(ctx, auditlog.Entry{
				UserID:  &author.ID,
				Action:  auditlog.ActionEventCreated,
				Details: map[string]interface{}{"title": in.Title, "error": err.Error()},
				Status:  auditlog.StatusFailure,
			})
		}
	}()

	if err := validateDetails(in.Title, in.Description, in.Location, in.Category); err != nil {
		return nil, err
	}
	if in.Capacity < 1 {
		return nil, apperror.Validation("", "Capacity must be at least 1")
	}
	startsAt, err := s.futureStart(in.Date, in.Time)
	if err != nil {
		return nil, err
	}
	if err := s.files.ValidateFileLimit(0, len(files)); err != nil {
		return nil, err
	}

	list := s.files.ProcessUploadedFiles(files)
	attachment.SortAttachments(list)

	contact := strings.TrimSpace(in.Contact)
	if contact == "" {
		contact = author.Email
	}

	p = &PendingEvent{EventFields: EventFields{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Location:    strings.TrimSpace(in.Location),
		Faculty:     strings.TrimSpace(in.Faculty),
		Department:  strings.TrimSpace(in.Department),
		Date:        calendarDay(in.Date),
		Time:        normalizeTime(in.Time),
		StartsAt:    startsAt.UTC(),
		Capacity:    in.Capacity,
		Organizer: Organizer{
			Represents:       author.Represents,
			OrganizationName: author.OrganizationName,
			Contact:          contact,
		},
		Attachments:            list,
		TitleImage:             attachment.SelectTitleImage(list, in.TitleImageName, nil),
		Status:                 StatusPending,
		AuthorID:               author.ID,
		PendingDeletedFileURLs: datatypes.JSONSlice[string]{},
	}}
	if err := s.repo.CreatePending(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}

	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &author.ID,
		EventID: &p.ID,
		Action:  auditlog.ActionEventCreated,
		Details: map[string]interface{}{"title": p.Title, "attachments": len(list)},
	})
	s.log.Info().Uint("pending_id", p.ID).Uint("author_id", author.ID).Msg("📝 event proposed")
	return p, nil
}

// ProposeUpdate snapshots the live event with the edits applied into the
// pending store. The live row is untouched until an admin approves.
func (s *service) ProposeUpdate(ctx context.Context, author auth.User, eventID uint, in UpdateEventInput, files []attachment.Upload) (p *PendingEvent, err error) {
	defer func() {
		if err != nil {
			s.files.DeleteFiles(ctx, attachment.StoredNames(files))
		}
	}()

	live, err := s.repo.GetLive(ctx, eventID)
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	existing, err := s.repo.PendingForTarget(ctx, live.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if len(existing) > 0 {
		return nil, errPendingExists()
	}
	if !author.MatchesOrganizer(live.Organizer.Represents, live.Organizer.OrganizationName) {
		return nil, apperror.Forbidden(apperror.CodeAffiliationMismatch, "You can only modify events of your own organization")
	}
	if !s.clock.Now().Before(live.StartsAt) {
		return nil, apperror.Validation(apperror.CodeEventStarted, "Cannot modify an event that has already started")
	}

	fields := live.EventFields.clone()
	if err := s.applyPatch(&fields, live, in); err != nil {
		return nil, err
	}

	removed := make(map[string]bool, len(in.DeleteAttachments))
	for _, id := range in.DeleteAttachments {
		removed[id] = true
	}
	kept := make([]attachment.Attachment, 0, len(fields.Attachments))
	for _, a := range fields.Attachments {
		if removed[a.ID] {
			fields.PendingDeletedFileURLs = append(fields.PendingDeletedFileURLs, a.URL)
			continue
		}
		kept = append(kept, a)
	}
	if err := s.files.ValidateFileLimit(len(kept), len(files)); err != nil {
		return nil, err
	}
	list := append(kept, s.files.ProcessUploadedFiles(files)...)
	attachment.SortAttachments(list)
	fields.Attachments = list
	fields.TitleImage = attachment.SelectTitleImage(list, in.TitleImageName, live.TitleImage)

	fields.Status = StatusPending
	fields.UpdatedBy = &author.ID
	fields.ProcessedBy = nil
	fields.ProcessedAt = nil
	fields.RejectionReason = ""

	p = &PendingEvent{EventFields: fields, TargetEventID: &live.ID}
	if err := s.repo.CreatePending(ctx, p); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errPendingExists()
		}
		return nil, apperror.Internal(err)
	}

	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &author.ID,
		EventID: &live.ID,
		Action:  auditlog.ActionEventUpdateProposed,
		Details: map[string]interface{}{"pending_id": p.ID, "removed_files": len(fields.PendingDeletedFileURLs)},
	})
	return p, nil
}

func (s *service) applyPatch(f *EventFields, live *Event, in UpdateEventInput) error {
	if in.Title != nil {
		f.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		f.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		f.Category = *in.Category
	}
	if in.Location != nil {
		f.Location = strings.TrimSpace(*in.Location)
	}
	if in.Faculty != nil {
		f.Faculty = strings.TrimSpace(*in.Faculty)
	}
	if in.Department != nil {
		f.Department = strings.TrimSpace(*in.Department)
	}
	if in.Contact != nil {
		f.Organizer.Contact = strings.TrimSpace(*in.Contact)
	}
	if err := validateDetails(f.Title, f.Description, f.Location, f.Category); err != nil {
		return err
	}

	if in.Capacity != nil {
		if *in.Capacity < 1 || *in.Capacity < live.Attendees {
			return apperror.Validation("", fmt.Sprintf("Capacity must be at least %d", max(1, live.Attendees)))
		}
		f.Capacity = *in.Capacity
	}

	if in.Date != nil || in.Time != nil {
		date, hhmm := f.Date, f.Time
		if in.Date != nil {
			date = *in.Date
		}
		if in.Time != nil {
			hhmm = *in.Time
		}
		startsAt, err := s.futureStart(date, hhmm)
		if err != nil {
			return err
		}
		f.Date = calendarDay(date)
		f.Time = normalizeTime(hhmm)
		f.StartsAt = startsAt.UTC()
	}
	return nil
}

// ===========================
// Moderation

func (s *service) Approve(ctx context.Context, adminID, pendingID uint) (*Event, error) {
	p, err := s.repo.GetPending(ctx, pendingID)
	if err != nil {
		return nil, notFoundOr(err, "Pending request not found")
	}
	now := s.clock.Now()

	fields := p.EventFields.clone()
	fields.Status = StatusApproved
	fields.ProcessedBy = &adminID
	fields.ProcessedAt = &now
	fields.RejectionReason = ""
	deferred := fields.PendingDeletedFileURLs
	fields.PendingDeletedFileURLs = datatypes.JSONSlice[string]{}

	var e *Event
	if p.TargetEventID != nil {
		live, err := s.repo.GetLive(ctx, *p.TargetEventID)
		if err != nil {
			return nil, notFoundOr(err, "Original event no longer exists")
		}
		fields.Attendees = live.Attendees
		fields.AverageRating = live.AverageRating
		fields.ReviewCount = live.ReviewCount
		e = &Event{ID: live.ID, EventFields: fields, CreatedAt: live.CreatedAt}
		if err := s.repo.ApproveEdit(ctx, p.ID, e); err != nil {
			return nil, moderationError(err)
		}

		s.files.DeleteFiles(ctx, unreferenced(deferred, fields.Attachments))
		if n, err := s.notifier.NotifyEventUpdated(ctx, e.ID, e.Title); err != nil {
			s.log.Error().Err(err).Uint("event_id", e.ID).Msg("❌ event updated fan-out failed")
		} else {
			s.log.Info().Uint("event_id", e.ID).Int("notified", n).Msg("📣 event update fanned out")
		}
	} else {
		e = &Event{ID: p.ID, EventFields: fields}
		if err := s.repo.ApproveNew(ctx, p.ID, e); err != nil {
			return nil, moderationError(err)
		}
	}

	s.notifyAuthor(ctx, e.AuthorID, notification.TypeEventApproved, e.Title,
		fmt.Sprintf("Your event '%s' has been approved.", e.Title), e.ID)
	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &adminID,
		EventID: &e.ID,
		Action:  auditlog.ActionEventApproved,
		Details: map[string]interface{}{"pending_id": p.ID, "edit": p.TargetEventID != nil},
	})
	return e, nil
}

func (s *service) Reject(ctx context.Context, adminID, pendingID uint, reason string) (*RejectedEvent, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.Validation("", "Rejection reason is required")
	}
	p, err := s.repo.GetPending(ctx, pendingID)
	if err != nil {
		return nil, notFoundOr(err, "Pending request not found")
	}

	doomed := attachment.URLs(p.Attachments)
	if p.TargetEventID != nil {
		live, err := s.repo.GetLive(ctx, *p.TargetEventID)
		switch {
		case err == nil:
			doomed = unreferenced(doomed, live.Attachments)
		case !database.IsNotFound(err):
			return nil, apperror.Internal(err)
		}
	}

	now := s.clock.Now()
	fields := p.EventFields.clone()
	fields.Status = StatusRejected
	fields.RejectionReason = reason
	fields.ProcessedBy = &adminID
	fields.ProcessedAt = &now
	fields.PendingDeletedFileURLs = datatypes.JSONSlice[string]{}

	r := &RejectedEvent{ID: p.ID, EventFields: fields, TargetEventID: p.TargetEventID}
	if err := s.repo.Reject(ctx, p.ID, r); err != nil {
		return nil, moderationError(err)
	}
	s.files.DeleteFiles(ctx, doomed)

	related := p.ID
	if p.TargetEventID != nil {
		related = *p.TargetEventID
	}
	s.notifyAuthor(ctx, r.AuthorID, notification.TypeEventRejected, r.Title,
		fmt.Sprintf("Your event '%s' was rejected: %s", r.Title, reason), related)
	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &adminID,
		EventID: &related,
		Action:  auditlog.ActionEventRejected,
		Details: map[string]interface{}{"pending_id": p.ID, "reason": reason, "deleted_files": len(doomed)},
	})
	return r, nil
}

func (s *service) notifyAuthor(ctx context.Context, authorID uint, typ notification.Type, title, msg string, eventID uint) {
	if authorID == 0 {
		return
	}
	_, err := s.notifier.NotifyUser(ctx, notification.CreateInput{
		UserID:         authorID,
		Title:          title,
		Message:        msg,
		Type:           typ,
		RelatedEventID: &eventID,
	})
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", authorID).Str("type", string(typ)).Msg("❌ author notification failed")
	}
}

// ===========================
// Deletion

// DeleteEvent removes id from whichever store holds it. Admins, the author and
// members of the organizing organization may delete.
func (s *service) DeleteEvent(ctx context.Context, actor auth.User, id uint) error {
	live, err := s.repo.GetLive(ctx, id)
	if err == nil {
		return s.deleteLive(ctx, actor, live)
	}
	if !database.IsNotFound(err) {
		return apperror.Internal(err)
	}

	p, err := s.repo.GetPending(ctx, id)
	if err == nil {
		if err := canDelete(actor, p.EventFields); err != nil {
			return err
		}
		if err := s.repo.DeletePending(ctx, id); err != nil {
			return notFoundOr(err, "Event not found")
		}
		s.files.DeleteFiles(ctx, s.exclusiveFiles(ctx, p.TargetEventID, p.Attachments))
		s.logDeleted(ctx, actor, id, p.Title, "pending")
		return nil
	}
	if !database.IsNotFound(err) {
		return apperror.Internal(err)
	}

	r, err := s.repo.GetRejected(ctx, id)
	if err != nil {
		return notFoundOr(err, "Event not found")
	}
	if err := canDelete(actor, r.EventFields); err != nil {
		return err
	}
	if err := s.repo.DeleteRejected(ctx, id); err != nil {
		return notFoundOr(err, "Event not found")
	}
	s.files.DeleteFiles(ctx, s.exclusiveFiles(ctx, r.TargetEventID, r.Attachments))
	s.logDeleted(ctx, actor, id, r.Title, "rejected")
	return nil
}

func (s *service) deleteLive(ctx context.Context, actor auth.User, e *Event) error {
	if err := canDelete(actor, e.EventFields); err != nil {
		return err
	}
	if e.StartsAt.Sub(s.clock.Now()) < s.opts.DeleteWindow {
		return apperror.Validation(apperror.CodeDeleteWindowClosed,
			fmt.Sprintf("Events cannot be deleted within %s of starting.", humanDuration(s.opts.DeleteWindow)))
	}

	audience, err := s.notifier.ResolveAudience(ctx, e.ID)
	if err != nil {
		return err
	}
	edits, err := s.repo.PendingForTarget(ctx, e.ID)
	if err != nil {
		return apperror.Internal(err)
	}
	if err := s.repo.DeleteLive(ctx, e.ID); err != nil {
		return notFoundOr(err, "Event not found")
	}

	doomed := attachment.URLs(e.Attachments)
	for _, p := range edits {
		doomed = append(doomed, unreferenced(attachment.URLs(p.Attachments), e.Attachments)...)
	}
	s.files.DeleteFiles(ctx, doomed)

	n := s.notifier.NotifyEventDeleted(ctx, audience, e.Title)
	s.log.Info().Uint("event_id", e.ID).Int("notified", n).Msg("🗑️ event deleted")
	s.logDeleted(ctx, actor, e.ID, e.Title, "live")
	return nil
}

// exclusiveFiles returns the urls of list that the live target does not also use.
func (s *service) exclusiveFiles(ctx context.Context, targetID *uint, list []attachment.Attachment) []string {
	urls := attachment.URLs(list)
	if targetID == nil {
		return urls
	}
	live, err := s.repo.GetLive(ctx, *targetID)
	if err != nil {
		if !database.IsNotFound(err) {
			s.log.Warn().Err(err).Uint("event_id", *targetID).Msg("⚠️ keeping files, live event lookup failed")
			return nil
		}
		return urls
	}
	return unreferenced(urls, live.Attachments)
}

func (s *service) logDeleted(ctx context.Context, actor auth.User, id uint, title, store string) {
	s.audit.LogAction(ctx, auditlog.Entry{
		UserID:  &actor.ID,
		EventID: &id,
		Action:  auditlog.ActionEventDeleted,
		Details: map[string]interface{}{"title": title, "store": store},
	})
}

func canDelete(actor auth.User, f EventFields) error {
	if actor.IsAdmin() || f.AuthorID == actor.ID ||
		actor.MatchesOrganizer(f.Organizer.Represents, f.Organizer.OrganizationName) {
		return nil
	}
	return apperror.Forbidden(apperror.CodeAffiliationMismatch, "You are not allowed to delete this event")
}

// ===========================
// Reads

func (s *service) GetEvent(ctx context.Context, id uint) (*Event, error) {
	e, err := s.repo.GetLive(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Event not found")
	}
	return e, nil
}

func (s *service) ListApproved(ctx context.Context, f Filter, page, limit int) (*Page[Event], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	items, total, err := s.repo.ListApproved(ctx, f, page, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Page[Event]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *service) ListPending(ctx context.Context) ([]PendingEvent, error) {
	items, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

func (s *service) ListRejected(ctx context.Context) ([]RejectedEvent, error) {
	items, err := s.repo.ListRejected(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

func (s *service) ListByAuthor(ctx context.Context, authorID uint) ([]Record, error) {
	items, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

func (s *service) ListOrganizationEvents(ctx context.Context, user auth.User) ([]Event, error) {
	if !user.HasAffiliation() {
		return nil, apperror.Forbidden(apperror.CodeAffiliationMismatch, "Your account is not linked to an organization")
	}
	items, err := s.repo.ListByOrganizer(ctx, user.Represents, user.OrganizationName)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

// ===========================
// helpers

func (s *service) futureStart(date time.Time, hhmm string) (time.Time, error) {
	if date.IsZero() || !utils.IsHHMM(hhmm) {
		return time.Time{}, apperror.Validation("", "A valid date and HH:MM time are required")
	}
	startsAt, err := StartInstant(date, hhmm, s.opts.Location)
	if err != nil {
		return time.Time{}, apperror.Validation("", err.Error())
	}
	if !startsAt.After(s.clock.Now()) {
		return time.Time{}, apperror.Validation(apperror.CodeEventInPast, "Event date and time must be in the future")
	}
	return startsAt, nil
}

func validateDetails(title, description, location, category string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return apperror.Validation("", "Title is required")
	case strings.TrimSpace(description) == "":
		return apperror.Validation("", "Description is required")
	case strings.TrimSpace(location) == "":
		return apperror.Validation("", "Location is required")
	case !utils.IsEventCategory(category):
		return apperror.Validation("", fmt.Sprintf("Category must be one of %s", strings.Join(utils.EventCategories, ", ")))
	}
	return nil
}

// unreferenced keeps the urls that no attachment in keep points to.
func unreferenced(urls []string, keep []attachment.Attachment) []string {
	used := make(map[string]bool, len(keep))
	for _, a := range keep {
		used[a.URL] = true
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !used[u] {
			out = append(out, u)
		}
	}
	return out
}

func errPendingExists() error {
	return apperror.Conflict(apperror.CodePendingChangeExists, "A pending modification request already exists for this event")
}

func moderationError(err error) error {
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		return apperror.Conflict(apperror.CodeAlreadyProcessed, "This request has already been processed")
	case errors.Is(err, ErrTargetMissing):
		return apperror.NotFound("Original event no longer exists")
	case database.IsUniqueViolation(err):
		return apperror.Conflict(apperror.CodeAlreadyProcessed, "This request has already been processed")
	}
	return apperror.Internal(err)
}

func notFoundOr(err error, msg string) error {
	if database.IsNotFound(err) {
		return apperror.NotFound(msg)
	}
	return apperror.Internal(err)
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
