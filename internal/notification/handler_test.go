package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

func newTestRouter(f *fixture, user auth.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	})
	h := NewHandler(f.d)
	g := r.Group("/api/v1/notifications")
	g.GET("", h.GetMyNotifications)
	g.GET("/unread-count", h.GetUnreadCount)
	g.PUT("/read-all", h.MarkAllAsRead)
	g.PUT("/:id/read", h.MarkAsRead)
	g.DELETE("/:id", h.DeleteNotification)
	g.POST("/device-tokens", h.RegisterDeviceToken)
	return r
}

func TestHandlerListAndRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	mine, err := f.d.CreateNotification(ctx, CreateInput{UserID: 1, Title: "t", Message: "m", Type: TypeEventApproved})
	require.NoError(t, err)
	other, err := f.d.CreateNotification(ctx, CreateInput{UserID: 2, Title: "t", Message: "m", Type: TypeEventApproved})
	require.NoError(t, err)

	r := newTestRouter(f, auth.User{ID: 1})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/notifications/"+itoa(other.ID)+"/read", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/notifications/"+itoa(mine.ID)+"/read", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerMarkAllAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	n, err := f.d.CreateNotification(ctx, CreateInput{UserID: 1, Title: "t", Message: "m", Type: TypeEventApproved})
	require.NoError(t, err)
	_, err = f.d.CreateNotification(ctx, CreateInput{UserID: 1, Title: "t", Message: "m", Type: TypeEventApproved})
	require.NoError(t, err)

	r := newTestRouter(f, auth.User{ID: 1})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/notifications/read-all", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"modifiedCount":2}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil))
	assert.JSONEq(t, `{"count":0}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/notifications/"+itoa(n.ID), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/notifications/"+itoa(n.ID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlerRegisterDeviceToken(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f, auth.User{ID: 3})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/device-tokens",
		strings.NewReader(`{"token":"abc","deviceType":"pager"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/notifications/device-tokens",
		strings.NewReader(`{"token":"abc","deviceType":"web"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"abc"}, f.repo.tokens[3])
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
