package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharath018/campus-events-backend/config"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

func newTestService(clock utils.Clock) (Service, *memRepo) {
	repo := newMemRepo()
	cfg := &config.Config{
		JWTAccessSecret:    "access",
		JWTRefreshSecret:   "refresh",
		JWTAccessTTLHours:  1,
		JWTRefreshTTLHours: 24,
	}
	return NewService(repo, cfg, clock), repo
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	clock := &utils.FixedClock{T: time.Now()}
	svc, _ := newTestService(clock)

	user, err := svc.Register(ctx, RegisterInput{FullName: "Ana", Email: "Ana@Example.com", Password: "secret123", Role: RoleStudent, University: "UniZg"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, DefaultPreferences(), user.Preferences)

	_, err = svc.Register(ctx, RegisterInput{FullName: "Ana", Email: "ana@example.com", Password: "x12345"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	tokens, logged, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	id, err := svc.ParseAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = svc.ParseAccessToken(tokens.RefreshToken)
	assert.Error(t, err, "refresh token must not pass as access token")

	_, _, err = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "wrong"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestRegisterRejectsElevatedRoles(t *testing.T) {
	svc, _ := newTestService(utils.SystemClock())

	_, err := svc.Register(context.Background(), RegisterInput{FullName: "Eve", Email: "eve@example.com", Password: "secret123", Role: RoleOrganizer})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.Register(context.Background(), RegisterInput{FullName: "Stu", Email: "stu@example.com", Password: "secret123", Role: RoleStudent})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestAccessTokenExpires(t *testing.T) {
	clock := &utils.FixedClock{T: time.Now()}
	svc, _ := newTestService(clock)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{FullName: "Ana", Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	tokens, _, err := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = svc.ParseAccessToken(tokens.AccessToken)
	assert.Error(t, err)

	fresh, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	_, err = svc.ParseAccessToken(fresh)
	assert.NoError(t, err)
}

func TestProvisionFirebaseUserIsIdempotent(t *testing.T) {
	svc, _ := newTestService(utils.SystemClock())
	ctx := context.Background()

	first, err := svc.ProvisionFirebaseUser(ctx, "uid-1", "Fb@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, RoleSimpleUser, first.Role)
	assert.Equal(t, "Fb", first.FullName)

	second, err := svc.ProvisionFirebaseUser(ctx, "uid-1", "fb@example.com", "ignored")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestMatchesOrganizer(t *testing.T) {
	rep := User{Represents: " Student Union "}
	org := User{OrganizationName: "Chess Club"}
	none := User{}

	assert.True(t, rep.MatchesOrganizer("student union", ""))
	assert.False(t, rep.MatchesOrganizer("", "Student Union"))
	assert.True(t, org.MatchesOrganizer("", "CHESS CLUB"))
	assert.False(t, org.MatchesOrganizer("Chess", "Chess Club 2"))
	assert.False(t, none.MatchesOrganizer("", ""))
}

func TestPreferencesByTopic(t *testing.T) {
	p := Preferences{NotifyEventUpdated: true, EmailEventReminder: true}

	assert.True(t, p.InApp(TopicEventUpdates))
	assert.False(t, p.InApp(TopicEventReminders))
	assert.False(t, p.Email(TopicEventUpdates))
	assert.True(t, p.Email(TopicEventReminders))
	assert.True(t, p.InApp(Topic("moderation")))
}
