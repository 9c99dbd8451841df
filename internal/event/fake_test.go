package event

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/attachment"
	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/notification"
	"github.com/sharath018/campus-events-backend/utils"
)

var fixedNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type memRepo struct {
	mu       sync.Mutex
	seq      uint
	live     map[uint]*Event
	pending  map[uint]*PendingEvent
	rejected map[uint]*RejectedEvent
	cascaded []uint
}

func newMemRepo() *memRepo {
	return &memRepo{live: map[uint]*Event{}, pending: map[uint]*PendingEvent{}, rejected: map[uint]*RejectedEvent{}}
}

func (m *memRepo) addLive(e Event) *Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e.ID = m.seq
	e.EventFields = e.EventFields.clone()
	m.live[e.ID] = &e
	return &e
}

func (m *memRepo) CreatePending(_ context.Context, p *PendingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.TargetEventID != nil {
		for _, other := range m.pending {
			if other.TargetEventID != nil && *other.TargetEventID == *p.TargetEventID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	m.seq++
	p.ID = m.seq
	cp := *p
	cp.EventFields = p.EventFields.clone()
	m.pending[p.ID] = &cp
	return nil
}

func (m *memRepo) GetLive(_ context.Context, id uint) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	cp.EventFields = e.EventFields.clone()
	return &cp, nil
}

func (m *memRepo) GetPending(_ context.Context, id uint) (*PendingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pending[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	cp.EventFields = p.EventFields.clone()
	return &cp, nil
}

func (m *memRepo) GetRejected(_ context.Context, id uint) (*RejectedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rejected[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) PendingForTarget(_ context.Context, targetID uint) ([]PendingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PendingEvent
	for _, p := range m.pending {
		if p.TargetEventID != nil && *p.TargetEventID == targetID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memRepo) claim(id uint) error {
	if _, ok := m.pending[id]; !ok {
		return ErrAlreadyProcessed
	}
	delete(m.pending, id)
	return nil
}

func (m *memRepo) ApproveNew(_ context.Context, pendingID uint, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim(pendingID); err != nil {
		return err
	}
	e.CreatedAt = fixedNow
	cp := *e
	m.live[e.ID] = &cp
	return nil
}

func (m *memRepo) ApproveEdit(_ context.Context, pendingID uint, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim(pendingID); err != nil {
		return err
	}
	cur, ok := m.live[e.ID]
	if !ok {
		return ErrTargetMissing
	}
	next := *e
	next.Attendees = cur.Attendees
	next.AverageRating = cur.AverageRating
	next.ReviewCount = cur.ReviewCount
	next.CreatedAt = cur.CreatedAt
	m.live[e.ID] = &next
	return nil
}

func (m *memRepo) Reject(_ context.Context, pendingID uint, r *RejectedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.claim(pendingID); err != nil {
		return err
	}
	cp := *r
	m.rejected[r.ID] = &cp
	return nil
}

func (m *memRepo) DeleteLive(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for pid, p := range m.pending {
		if p.TargetEventID != nil && *p.TargetEventID == id {
			delete(m.pending, pid)
		}
	}
	delete(m.live, id)
	m.cascaded = append(m.cascaded, id)
	return nil
}

func (m *memRepo) DeletePending(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.pending, id)
	return nil
}

func (m *memRepo) DeleteRejected(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rejected[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rejected, id)
	return nil
}

func (m *memRepo) ListApproved(_ context.Context, f Filter, page, limit int) ([]Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.live {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return []Event{}, total, nil
	}
	end := min(start+limit, len(out))
	return out[start:end], total, nil
}

func (m *memRepo) ListPending(context.Context) ([]PendingEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PendingEvent
	for _, p := range m.pending {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memRepo) ListRejected(context.Context) ([]RejectedEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RejectedEvent
	for _, r := range m.rejected {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRepo) ListByAuthor(_ context.Context, authorID uint) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, e := range m.live {
		if e.AuthorID == authorID {
			out = append(out, e.Record())
		}
	}
	for _, p := range m.pending {
		if p.AuthorID == authorID {
			out = append(out, p.Record())
		}
	}
	for _, r := range m.rejected {
		if r.AuthorID == authorID {
			out = append(out, r.Record())
		}
	}
	sortRecords(out)
	return out, nil
}

func (m *memRepo) ListByOrganizer(_ context.Context, represents, organizationName string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	probe := auth.User{Represents: represents, OrganizationName: organizationName}
	var out []Event
	for _, e := range m.live {
		if probe.MatchesOrganizer(e.Organizer.Represents, e.Organizer.OrganizationName) {
			out = append(out, *e)
		}
	}
	return out, nil
}

// memStorage records deletions by stored name.
type memStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (s *memStorage) Save(context.Context, string, string, io.Reader) error { return nil }

func (s *memStorage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *memStorage) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.deleted...)
	sort.Strings(out)
	return out
}

type fakeNotifier struct {
	mu        sync.Mutex
	sent      []notification.CreateInput
	updated   []uint
	deleted   []notification.Audience
	audiences map[uint]notification.Audience
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{audiences: map[uint]notification.Audience{}}
}

func (n *fakeNotifier) NotifyUser(_ context.Context, in notification.CreateInput) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, in)
	return true, nil
}

func (n *fakeNotifier) ResolveAudience(_ context.Context, eventID uint) (notification.Audience, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.audiences[eventID], nil
}

func (n *fakeNotifier) NotifyEventUpdated(_ context.Context, eventID uint, _ string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, eventID)
	return len(n.audiences[eventID].Targets()), nil
}

func (n *fakeNotifier) NotifyEventDeleted(_ context.Context, a notification.Audience, _ string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, a)
	return len(a.Targets())
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditlog.Entry
}

func (a *fakeAudit) LogAction(_ context.Context, e auditlog.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *fakeAudit) GetAuditLogs(context.Context, auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

func (a *fakeAudit) GetAuditLogByID(context.Context, uint) (*auditlog.AuditLogResponse, error) {
	return nil, nil
}

func (a *fakeAudit) GetStats(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action+":"+e.Status)
	}
	return out
}

type fixture struct {
	repo     *memRepo
	storage  *memStorage
	notifier *fakeNotifier
	audit    *fakeAudit
	clock    *utils.FixedClock
	files    *attachment.Manager
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemRepo(),
		storage:  &memStorage{},
		notifier: newFakeNotifier(),
		audit:    &fakeAudit{},
		clock:    &utils.FixedClock{T: fixedNow},
	}
	f.files = attachment.NewManager(f.storage, attachment.Options{MaxFiles: 3}, f.clock, zerolog.Nop())
	f.svc = NewService(f.repo, f.files, f.notifier, f.audit, f.clock, Options{DeleteWindow: 24 * time.Hour}, zerolog.Nop())
	return f
}

// racingRepo hides existing proposals from the pre-check, as if another
// proposal committed between the check and the insert.
type racingRepo struct {
	*memRepo
}

func (r *racingRepo) PendingForTarget(context.Context, uint) ([]PendingEvent, error) {
	return nil, nil
}

var (
	organizer = auth.User{ID: 10, Email: "org@uni.io", Role: auth.RoleOrganizer, OrganizationName: "Robotics Club"}
	colleague = auth.User{ID: 11, Email: "co@uni.io", Role: auth.RoleOrganizer, OrganizationName: " robotics club "}
	outsider  = auth.User{ID: 12, Email: "out@uni.io", Role: auth.RoleOrganizer, OrganizationName: "Chess Society"}
	admin     = auth.User{ID: 1, Email: "admin@uni.io", Role: auth.RoleAdmin}
)

func upload(name, contentType string) attachment.Upload {
	return attachment.Upload{StoredName: "s-" + name, OriginalName: name, ContentType: contentType, Size: 100}
}

func validCreate() CreateEventInput {
	return CreateEventInput{
		Title:       "Robot Wars",
		Description: "Bring your bots",
		Category:    "Academic",
		Location:    "Hall B",
		Date:        fixedNow.AddDate(0, 0, 10),
		Time:        "18:30",
		Capacity:    40,
	}
}

// seedLive stores an approved event for organizer starting in `in`.
func (f *fixture) seedLive(in time.Duration, files ...attachment.Attachment) *Event {
	start := fixedNow.Add(in)
	return f.repo.addLive(Event{
		EventFields: EventFields{
			Title:         "Robot Wars",
			Description:   "Bring your bots",
			Category:      "Academic",
			Location:      "Hall B",
			Date:          calendarDay(start),
			Time:          start.Format("15:04"),
			StartsAt:      start,
			Capacity:      40,
			Attendees:     7,
			AverageRating: 4.5,
			ReviewCount:   2,
			Organizer:     Organizer{OrganizationName: "Robotics Club", Contact: "org@uni.io"},
			Attachments:   files,
			Status:        StatusApproved,
			AuthorID:      organizer.ID,
		},
		CreatedAt: fixedNow.AddDate(0, -1, 0),
	})
}

func att(id, name string, ft attachment.FileType) attachment.Attachment {
	return attachment.Attachment{ID: id, URL: attachment.URLPrefix + "s-" + name, Name: name, FileType: ft, Size: 10}
}
