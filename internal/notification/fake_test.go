package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

type memRepo struct {
	mu        sync.Mutex
	nextID    uint
	items     []Notification
	audiences map[uint]Audience
	tokens    map[uint][]string
	inactive  []string
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{audiences: map[uint]Audience{}, tokens: map[uint][]string{}}
}

func (m *memRepo) Create(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	n.ID = m.nextID
	m.items = append(m.items, *n)
	return nil
}

func (m *memRepo) ListByUser(_ context.Context, userID uint, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) find(id, userID uint) int {
	for i, n := range m.items {
		if n.ID == id && n.UserID == userID {
			return i
		}
	}
	return -1
}

func (m *memRepo) MarkAsRead(_ context.Context, id, userID uint) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id, userID)
	if i < 0 {
		return nil, gorm.ErrRecordNotFound
	}
	m.items[i].IsRead = true
	cp := m.items[i]
	return &cp, nil
}

func (m *memRepo) MarkAllAsRead(_ context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memRepo) Delete(_ context.Context, id, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id, userID)
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

func (m *memRepo) UnreadCount(_ context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, it := range m.items {
		if it.UserID == userID && !it.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) EventAudience(_ context.Context, eventID uint) (Audience, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audiences[eventID], nil
}

func (m *memRepo) SaveDeviceToken(_ context.Context, t *DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.UserID] = append(m.tokens[t.UserID], t.Token)
	return nil
}

func (m *memRepo) RemoveDeviceToken(_ context.Context, userID uint, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, tok := range m.tokens[userID] {
		if tok == token {
			m.tokens[userID] = append(m.tokens[userID][:i], m.tokens[userID][i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memRepo) ActiveTokens(_ context.Context, userID uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens[userID]...), nil
}

func (m *memRepo) DeactivateTokens(_ context.Context, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inactive = append(m.inactive, tokens...)
	return nil
}

func (m *memRepo) byUser(userID uint) []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type userMap map[uint]auth.User

func (u userMap) FindByIDs(_ context.Context, ids []uint) ([]auth.User, error) {
	var out []auth.User
	for _, id := range ids {
		if user, ok := u[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func newUser(id uint, email string) auth.User {
	return auth.User{ID: id, FullName: "User", Email: email, Role: auth.RoleStudent, Preferences: auth.DefaultPreferences()}
}

type recordingTransport struct {
	mu  sync.Mutex
	got []Delivery
	err error
}

func (r *recordingTransport) Enqueue(_ context.Context, d Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, d)
	return nil
}

func (r *recordingTransport) Close() error { return nil }

func (r *recordingTransport) channel(c ChannelKind) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Delivery
	for _, d := range r.got {
		if d.Channel == c {
			out = append(out, d)
		}
	}
	return out
}

type memRealtime struct {
	mu          sync.Mutex
	published   []uint
	unread      map[uint]int64
	invalidated int
}

func newMemRealtime() *memRealtime { return &memRealtime{unread: map[uint]int64{}} }

func (r *memRealtime) Publish(_ context.Context, n *Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, n.UserID)
}

func (r *memRealtime) CachedUnread(_ context.Context, userID uint) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.unread[userID]
	return n, ok
}

func (r *memRealtime) CacheUnread(_ context.Context, userID uint, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unread[userID] = count
}

func (r *memRealtime) InvalidateUnread(_ context.Context, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unread, userID)
	r.invalidated++
}

type recordingChannel struct {
	mu    sync.Mutex
	sends [][]string
	err   error
}

func (c *recordingChannel) Send(_ context.Context, recipients []string, _, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends = append(c.sends, recipients)
	return c.err
}

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
