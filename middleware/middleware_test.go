package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
)

type stubAuth struct {
	auth.Service
	users map[uint]auth.User
	byUID map[string]auth.User
}

func (s *stubAuth) ParseAccessToken(token string) (uint, error) {
	if token == "good" {
		return 7, nil
	}
	return 0, errors.New("invalid token")
}

func (s *stubAuth) GetUserByID(_ context.Context, id uint) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &u, nil
}

func (s *stubAuth) ProvisionFirebaseUser(_ context.Context, uid, email, name string) (*auth.User, error) {
	if u, ok := s.byUID[uid]; ok {
		return &u, nil
	}
	u := auth.User{ID: 99, Email: email, FullName: name, Role: auth.RoleSimpleUser}
	s.byUID[uid] = u
	return &u, nil
}

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, token string) (auth.Identity, error) {
	if token != "firebase-token" {
		return auth.Identity{}, errors.New("bad token")
	}
	return auth.Identity{UID: "uid-1", Email: "new@uni.io", Name: "New"}, nil
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		u, _ := auth.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role, "ip": auditlog.IPFromContext(c.Request.Context())})
	})
	return r
}

func get(r http.Handler, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateJWT(t *testing.T) {
	svc := &stubAuth{users: map[uint]auth.User{7: {ID: 7, Role: auth.RoleOrganizer}}}
	r := newRouter(Authenticate(svc, nil))

	assert.Equal(t, http.StatusUnauthorized, get(r, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "bad", nil).Code)

	w := get(r, "good", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"organizer"`)
}

func TestAuthenticateFirebaseProvisions(t *testing.T) {
	svc := &stubAuth{byUID: map[string]auth.User{}}
	r := newRouter(Authenticate(svc, stubVerifier{}))

	assert.Equal(t, http.StatusUnauthorized, get(r, "good", nil).Code)

	w := get(r, "firebase-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":99`)
	assert.Contains(t, svc.byUID, "uid-1")
}

func TestRequireRoles(t *testing.T) {
	svc := &stubAuth{users: map[uint]auth.User{7: {ID: 7, Role: auth.RoleStudent}}}

	w := get(newRouter(Authenticate(svc, nil), RequireRoles(auth.RoleAdmin)), "good", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(newRouter(Authenticate(svc, nil), RequireRoles(auth.RoleStudent, auth.RoleAdmin)), "good", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(newRouter(RequireRoles(auth.RoleAdmin)), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientIPReachesAuditContext(t *testing.T) {
	r := newRouter(ClientIP())

	w := get(r, "", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"})
	assert.Contains(t, w.Body.String(), `"ip":"203.0.113.9"`)

	w = get(r, "", map[string]string{"X-Forwarded-For": "garbage", "X-Real-Ip": "198.51.100.4"})
	assert.Contains(t, w.Body.String(), `"ip":"198.51.100.4"`)

	w = get(r, "", nil)
	assert.Contains(t, w.Body.String(), `"ip":"192.0.2.1"`)
}
