package registration

import (
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

// Register godoc
// @Summary Register for an event
// @Tags Registrations
// @Produce json
// @Param id path int true "event id"
// @Success 201 {object} Registration
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id}/register [post]
func (h *Handler) Register(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	reg, err := h.service.Register(c.Request.Context(), user, eventID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// Unregister godoc
// @Summary Cancel my registration
// @Tags Registrations
// @Param id path int true "event id"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/events/{id}/register [delete]
func (h *Handler) Unregister(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	if err := h.service.Unregister(c.Request.Context(), user.ID, eventID); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMyRegistration godoc
// @Summary Get my ticket for an event
// @Tags Registrations
// @Produce json
// @Param id path int true "event id"
// @Success 200 {object} Registration
// @Security BearerAuth
// @Router /api/v1/events/{id}/register [get]
func (h *Handler) GetMyRegistration(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	reg, err := h.service.GetRegistration(c.Request.Context(), user.ID, eventID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

// GetMyRegistrations godoc
// @Summary List my tickets
// @Tags Registrations
// @Produce json
// @Success 200 {array} Registration
// @Security BearerAuth
// @Router /api/v1/registrations [get]
func (h *Handler) GetMyRegistrations(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	items, err := h.service.GetUserRegistrations(c.Request.Context(), user.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CheckIn godoc
// @Summary Check in a ticket at the door
// @Tags Registrations
// @Produce json
// @Param id path int true "event id"
// @Param ticketCode path string true "ticket code"
// @Success 200 {object} Registration
// @Security BearerAuth
// @Router /api/v1/events/{id}/check-in/{ticketCode} [post]
func (h *Handler) CheckIn(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}
	code := c.Param("ticketCode")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket code"})
		return
	}
	reg, err := h.service.CheckIn(c.Request.Context(), user, eventID, code)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

func eventIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return 0, false
	}
	return uint(id), true
}
