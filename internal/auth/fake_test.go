package auth

import (
	"context"
	"strings"
	"sync"

	"gorm.io/gorm"
)

type memRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*User
}

func newMemRepo() *memRepo { return &memRepo{users: map[uint]*User{}} }

func (m *memRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return gorm.ErrDuplicatedKey
		}
		if u.FirebaseUID != nil && existing.FirebaseUID != nil && *existing.FirebaseUID == *u.FirebaseUID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) FindByID(_ context.Context, id uint) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) FindByFirebaseUID(_ context.Context, uid string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.FirebaseUID != nil && *u.FirebaseUID == uid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) FindByIDs(ctx context.Context, ids []uint) ([]User, error) {
	var out []User
	for _, id := range ids {
		if u, err := m.FindByID(ctx, id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateFields(_ context.Context, id uint, fields map[string]interface{}) error {
	return nil
}
