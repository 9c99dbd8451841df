package favorite

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

// Mark godoc
// @Summary Add an event to my favorites
// @Tags Favorites
// @Param id path int true "event id"
// @Success 201 {object} Favorite
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id}/favorite [post]
func (h *Handler) Mark(c *gin.Context) {
	user, eventID, ok := userAndEvent(c)
	if !ok {
		return
	}
	fav, err := h.service.Mark(c.Request.Context(), user.ID, eventID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

// Unmark godoc
// @Summary Remove an event from my favorites
// @Tags Favorites
// @Param id path int true "event id"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/events/{id}/favorite [delete]
func (h *Handler) Unmark(c *gin.Context) {
	user, eventID, ok := userAndEvent(c)
	if !ok {
		return
	}
	if err := h.service.Unmark(c.Request.Context(), user.ID, eventID); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Status godoc
// @Summary Whether the event is in my favorites
// @Tags Favorites
// @Param id path int true "event id"
// @Success 200 {object} map[string]bool
// @Security BearerAuth
// @Router /api/v1/events/{id}/favorite [get]
func (h *Handler) Status(c *gin.Context) {
	user, eventID, ok := userAndEvent(c)
	if !ok {
		return
	}
	fav, err := h.service.IsFavorite(c.Request.Context(), user.ID, eventID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isFavorite": fav})
}

// List godoc
// @Summary List my favorite events
// @Tags Favorites
// @Success 200 {array} Favorite
// @Security BearerAuth
// @Router /api/v1/favorites [get]
func (h *Handler) List(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	items, err := h.service.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func userAndEvent(c *gin.Context) (auth.User, uint, bool) {
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
