package userprofile

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
)

type memRepo struct {
	users   map[uint]*auth.User
	applied []map[string]interface{}
}

func (m *memRepo) Get(_ context.Context, id uint) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) Apply(_ context.Context, id uint, cols map[string]interface{}) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.applied = append(m.applied, cols)
	for col, v := range cols {
		switch col {
		case "full_name":
			u.FullName = v.(string)
		case "university":
			u.University = v.(string)
		case "represents":
			u.Represents = v.(string)
		case "organization_name":
			u.OrganizationName = v.(string)
		case "pref_email_event_reminder":
			u.Preferences.EmailEventReminder = v.(bool)
		case "pref_notify_event_updated":
			u.Preferences.NotifyEventUpdated = v.(bool)
		}
	}
	cp := *u
	return &cp, nil
}

func newRepo() *memRepo {
	return &memRepo{users: map[uint]*auth.User{
		1: {ID: 1, Role: auth.RoleStudentRep, FullName: "Ana", Preferences: auth.DefaultPreferences()},
		2: {ID: 2, Role: auth.RoleOrganizer, FullName: "Ben", OrganizationName: "Film Society"},
		3: {ID: 3, Role: auth.RoleSimpleUser, FullName: "Cy"},
	}}
}

func TestUpdateProfileByRole(t *testing.T) {
	tests := []struct {
		name     string
		userID   uint
		patch    map[string]any
		wantKind apperror.Kind
		wantCols map[string]interface{}
	}{
		{"student rep sets represents", 1, map[string]any{"represents": " Chess Club ", "university": "Tech U"}, 0,
			map[string]interface{}{"represents": "Chess Club", "university": "Tech U"}},
		{"student rep cannot claim an organization", 1, map[string]any{"organizationName": "Film Society"}, apperror.KindForbidden, nil},
		{"organizer renames organization", 2, map[string]any{"organizationName": "Cinema Club"}, 0,
			map[string]interface{}{"organization_name": "Cinema Club"}},
		{"organizer cannot set represents", 2, map[string]any{"represents": "Chess Club"}, apperror.KindForbidden, nil},
		{"simple user only renames", 3, map[string]any{"university": "Tech U"}, apperror.KindForbidden, nil},
		{"blank value", 3, map[string]any{"fullName": "  "}, apperror.KindValidation, nil},
		{"unknown user", 9, map[string]any{"fullName": "X"}, apperror.KindNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo()
			svc := NewService(repo, zerolog.Nop())

			_, err := svc.UpdateProfile(context.Background(), tt.userID, tt.patch)
			if tt.wantCols == nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperror.KindOf(err))
				assert.Empty(t, repo.applied)
				return
			}
			require.NoError(t, err)
			require.Len(t, repo.applied, 1)
			assert.Equal(t, tt.wantCols, repo.applied[0])
		})
	}
}

func TestUpdatePreferencesOnlyTouchesGivenSwitches(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo, zerolog.Nop())
	off := false

	u, err := svc.UpdatePreferences(context.Background(), 1, PreferencesInput{EmailEventReminder: &off})
	require.NoError(t, err)
	assert.False(t, u.Preferences.EmailEventReminder)
	assert.True(t, u.Preferences.NotifyEventReminder)
	assert.Equal(t, []map[string]interface{}{{"pref_email_event_reminder": false}}, repo.applied)
}
