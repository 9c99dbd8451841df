package event

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/utils"
)

func newTestRouter(f *fixture, user auth.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	_ = utils.RegisterValidators()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	})
	h := NewHandler(f.svc, f.files)
	g := r.Group("/api/v1/events")
	g.GET("", h.ListEvents)
	g.POST("", h.CreateEvent)
	g.GET("/:id", h.GetEvent)
	g.PUT("/:id", h.UpdateEvent)
	g.DELETE("/:id", h.DeleteEvent)
	g.POST("/:id/approve", h.ApproveEvent)
	g.POST("/:id/reject", h.RejectEvent)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, files ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, name := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHandlerCreateAndApprove(t *testing.T) {
	f := newFixture()
	date := fixedNow.AddDate(0, 0, 5).Format("2006-01-02")

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Career Fair",
		"description": "Meet employers",
		"category":    "Career",
		"location":    "Main Hall",
		"date":        date,
		"time":        "9:15",
		"capacity":    "200",
	}, "poster.png")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newTestRouter(f, organizer).ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p PendingEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "09:15", p.Time)
	require.Len(t, p.Attachments, 1)
	assert.Equal(t, "poster.png", p.Attachments[0].Name)

	w = httptest.NewRecorder()
	newTestRouter(f, admin).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events/"+strconv.Itoa(int(p.ID))+"/approve", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newTestRouter(f, outsider).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/"+strconv.Itoa(int(p.ID)), nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandlerCreateRejectsBadForm(t *testing.T) {
	f := newFixture()
	body, contentType := multipartBody(t, map[string]string{
		"title":       "Career Fair",
		"description": "Meet employers",
		"category":    "Knitting",
		"location":    "Main Hall",
		"date":        "2026-04-01",
		"time":        "09:15",
		"capacity":    "20",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newTestRouter(f, organizer).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerUpdateConflict(t *testing.T) {
	f := newFixture()
	live := f.seedLive(72 * time.Hour)
	r := newTestRouter(f, organizer)
	path := "/api/v1/events/" + strconv.Itoa(int(live.ID))

	for i, want := range []int{http.StatusAccepted, http.StatusConflict} {
		body, contentType := multipartBody(t, map[string]string{"location": "Hall " + strconv.Itoa(i)})
		req := httptest.NewRequest(http.MethodPut, path, body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, w.Body.String())
	}
}

func TestHandlerRejectNeedsReason(t *testing.T) {
	f := newFixture()
	r := newTestRouter(f, admin)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/3/reject", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/events/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerListEventsBadDate(t *testing.T) {
	f := newFixture()
	w := httptest.NewRecorder()
	newTestRouter(f, outsider).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events?startDate=03/01/2026", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
