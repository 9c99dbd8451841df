package reports

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
)

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

// GetParticipants godoc
// @Summary List participants of an event
// @Tags Reports
// @Produce json
// @Param id path int true "event id"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} ParticipantsPage
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id}/participants [get]
func (h *Handler) GetParticipants(c *gin.Context) {
	user, eventID, ok := viewerAndEvent(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultParticipantLimit)))

	out, err := h.service.Participants(c.Request.Context(), user, eventID, page, limit)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ExportParticipants godoc
// @Summary Download the participant list
// @Tags Reports
// @Produce octet-stream
// @Param id path int true "event id"
// @Param format query string false "csv | xlsx | pdf"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /api/v1/events/{id}/participants/export [get]
func (h *Handler) ExportParticipants(c *gin.Context) {
	user, eventID, ok := viewerAndEvent(c)
	if !ok {
		return
	}
	data, name, mime, err := h.service.Export(c.Request.Context(), user, eventID, c.DefaultQuery("format", FormatCSV))
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.Data(http.StatusOK, mime, data)
}

// GetStatistics godoc
// @Summary Attendance and rating statistics of an event
// @Tags Reports
// @Produce json
// @Param id path int true "event id"
// @Success 200 {object} EventStatistics
// @Security BearerAuth
// @Router /api/v1/events/{id}/statistics [get]
func (h *Handler) GetStatistics(c *gin.Context) {
	user, eventID, ok := viewerAndEvent(c)
	if !ok {
		return
	}
	out, err := h.service.Statistics(c.Request.Context(), user, eventID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetOverview godoc
// @Summary Platform-wide statistics (admin)
// @Tags Reports
// @Produce json
// @Success 200 {object} Overview
// @Security BearerAuth
// @Router /api/v1/admin/statistics [get]
func (h *Handler) GetOverview(c *gin.Context) {
	out, err := h.service.Overview(c.Request.Context())
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func viewerAndEvent(c *gin.Context) (auth.User, uint, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return auth.User{}, 0, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return auth.User{}, 0, false
	}
	return user, uint(id), true
}
