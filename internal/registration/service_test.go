package registration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auditlog/audittest"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

var (
	host     = auth.User{ID: 20, Role: auth.RoleOrganizer, OrganizationName: "Drama Society"}
	crew     = auth.User{ID: 21, Role: auth.RoleStudentRep, Represents: "drama society"}
	student  = auth.User{ID: 30, Role: auth.RoleStudent}
	student2 = auth.User{ID: 31, Role: auth.RoleStudent}
)

type memEvents struct {
	mu     sync.Mutex
	events map[uint]*event.Event
}

func (m *memEvents) GetLive(_ context.Context, id uint) (*event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

// memRepo keeps the attendee counter on the shared memEvents so the capacity
// check behaves like the conditional UPDATE.
type memRepo struct {
	mu     sync.Mutex
	seq    uint
	items  map[uint]*Registration
	events *memEvents
}

func (m *memRepo) Create(_ context.Context, reg *Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.UserID == reg.UserID && r.EventID == reg.EventID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.events.mu.Lock()
	defer m.events.mu.Unlock()
	ev, ok := m.events.events[reg.EventID]
	if !ok || ev.Attendees >= ev.Capacity {
		return ErrEventFull
	}
	ev.Attendees++
	m.seq++
	reg.ID = m.seq
	cp := *reg
	m.items[reg.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, userID, eventID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.items {
		if r.UserID == userID && r.EventID == eventID {
			delete(m.items, id)
			m.events.mu.Lock()
			if ev, ok := m.events.events[eventID]; ok && ev.Attendees > 0 {
				ev.Attendees--
			}
			m.events.mu.Unlock()
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memRepo) withEvent(r Registration) Registration {
	if ev, err := m.events.GetLive(context.Background(), r.EventID); err == nil {
		r.Event = ev
	}
	return r
}

func (m *memRepo) Find(_ context.Context, userID, eventID uint) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.UserID == userID && r.EventID == eventID {
			out := m.withEvent(*r)
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) FindByTicket(_ context.Context, code string) (*Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.TicketCode == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) ListByUser(_ context.Context, userID uint) ([]Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Registration
	for id := uint(1); id <= m.seq; id++ {
		if r, ok := m.items[id]; ok && r.UserID == userID {
			out = append(out, m.withEvent(*r))
		}
	}
	return out, nil
}

func (m *memRepo) MarkCheckedIn(_ context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok || r.HasCheckedIn {
		return ErrAlreadyCheckedIn
	}
	r.HasCheckedIn = true
	r.CheckedInAt = &at
	return nil
}

type fixture struct {
	events *memEvents
	repo   *memRepo
	audit  *audittest.Recorder
	clock  *utils.FixedClock
	svc    Service
}

func newFixture() *fixture {
	events := &memEvents{events: map[uint]*event.Event{}}
	f := &fixture{
		events: events,
		repo:   &memRepo{items: map[uint]*Registration{}, events: events},
		audit:  &audittest.Recorder{},
		clock:  &utils.FixedClock{T: now},
	}
	f.svc = NewService(f.repo, f.events, f.audit, f.clock, zerolog.Nop())
	return f
}

func (f *fixture) addEvent(id uint, startsIn time.Duration, capacity int) *event.Event {
	ev := &event.Event{ID: id}
	ev.Title = "Hamlet"
	ev.StartsAt = now.Add(startsIn)
	ev.Capacity = capacity
	ev.Status = event.StatusApproved
	ev.AuthorID = host.ID
	ev.Organizer = event.Organizer{OrganizationName: "Drama Society"}
	f.events.events[id] = ev
	return ev
}

func (f *fixture) attendees(id uint) int {
	return f.events.events[id].Attendees
}

func TestRegisterLastSeat(t *testing.T) {
	f := newFixture()
	ev := f.addEvent(1, 48*time.Hour, 1)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, student, ev.ID)
	require.NoError(t, err)
	assert.Len(t, reg.TicketCode, 36)
	assert.Equal(t, 1, f.attendees(ev.ID))

	_, err = f.svc.Register(ctx, student2, ev.ID)
	assert.Equal(t, apperror.CodeEventFull, apperror.CodeOf(err))
	assert.Equal(t, 1, f.attendees(ev.ID))

	_, err = f.svc.Register(ctx, student, ev.ID)
	assert.Equal(t, apperror.CodeAlreadyRegistered, apperror.CodeOf(err))

	require.NoError(t, f.svc.Unregister(ctx, student.ID, ev.ID))
	assert.Equal(t, 0, f.attendees(ev.ID))

	_, err = f.svc.Register(ctx, student2, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		auditlog.ActionRegistrationCreated,
		auditlog.ActionRegistrationCanceled,
		auditlog.ActionRegistrationCreated,
	}, f.audit.Actions())
}

func TestRegisterGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	upcoming := f.addEvent(1, time.Hour, 10)
	started := f.addEvent(2, -time.Minute, 10)

	_, err := f.svc.Register(ctx, host, upcoming.ID)
	assert.Equal(t, apperror.CodeSelfRegistration, apperror.CodeOf(err))

	_, err = f.svc.Register(ctx, student, started.ID)
	assert.Equal(t, apperror.CodeEventStarted, apperror.CodeOf(err))

	_, err = f.svc.Register(ctx, student, 99)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = f.svc.Unregister(ctx, student.ID, upcoming.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Empty(t, f.audit.Actions())
}

func TestCheckInWindow(t *testing.T) {
	tests := []struct {
		name     string
		offset   time.Duration
		wantCode string
	}{
		{"just before opening", -CheckInOpensBefore - time.Second, apperror.CodeCheckInNotOpen},
		{"opening instant", -CheckInOpensBefore, ""},
		{"at start", 0, ""},
		{"closing instant", CheckInClosesAfter, ""},
		{"just after closing", CheckInClosesAfter + time.Second, apperror.CodeCheckInExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ev := f.addEvent(1, 5*time.Hour, 10)
			reg, err := f.svc.Register(context.Background(), student, ev.ID)
			require.NoError(t, err)

			f.clock.Set(ev.StartsAt.Add(tt.offset))
			got, err := f.svc.CheckIn(context.Background(), crew, ev.ID, reg.TicketCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, apperror.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, got.HasCheckedIn)
			require.NotNil(t, got.CheckedInAt)
			assert.Equal(t, f.clock.Now(), *got.CheckedInAt)
		})
	}
}

func TestCheckInRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.addEvent(1, 2*time.Hour, 10)
	other := f.addEvent(2, 2*time.Hour, 10)
	reg, err := f.svc.Register(ctx, student, ev.ID)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, student2, ev.ID, reg.TicketCode)
	assert.Equal(t, apperror.CodeAffiliationMismatch, apperror.CodeOf(err))

	_, err = f.svc.CheckIn(ctx, crew, other.ID, reg.TicketCode)
	assert.Equal(t, apperror.CodeTicketEventMismatch, apperror.CodeOf(err))

	_, err = f.svc.CheckIn(ctx, crew, ev.ID, "no-such-ticket")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.svc.CheckIn(ctx, crew, ev.ID, " "+reg.TicketCode+" ")
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, host, ev.ID, reg.TicketCode)
	assert.Equal(t, apperror.CodeAlreadyCheckedIn, apperror.CodeOf(err))

	f.events.events[other.ID].Status = event.StatusPending
	_, err = f.svc.CheckIn(ctx, crew, other.ID, reg.TicketCode)
	assert.Equal(t, apperror.CodeEventNotApproved, apperror.CodeOf(err))
}

func TestUserRegistrationsSkipDeletedEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	kept := f.addEvent(1, 24*time.Hour, 10)
	gone := f.addEvent(2, 24*time.Hour, 10)
	_, err := f.svc.Register(ctx, student, kept.ID)
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, student, gone.ID)
	require.NoError(t, err)

	delete(f.events.events, gone.ID)

	items, err := f.svc.GetUserRegistrations(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, kept.ID, items[0].EventID)

	_, err = f.svc.GetRegistration(ctx, student.ID, gone.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}
