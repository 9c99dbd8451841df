package review

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

// AddReview godoc
// @Summary Review an event I attended
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "event id"
// @Param input body AddReviewInput true "review"
// @Success 201 {object} ReviewResponse
// @Security BearerAuth
// @Router /api/v1/events/{id}/reviews [post]
func (h *Handler) AddReview(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	eventID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input AddReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := h.service.AddReview(c.Request.Context(), user.ID, eventID, input)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// ListReviews godoc
// @Summary List reviews of an event
// @Tags Reviews
// @Produce json
// @Param id path int true "event id"
// @Success 200 {array} ReviewResponse
// @Router /api/v1/events/{id}/reviews [get]
func (h *Handler) ListReviews(c *gin.Context) {
	eventID, ok := idParam(c, "id")
	if !ok {
		return
	}
	out, err := h.service.ListForEvent(c.Request.Context(), eventID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DeleteReview godoc
// @Summary Delete my review
// @Tags Reviews
// @Param reviewId path int true "review id"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/reviews/{reviewId} [delete]
func (h *Handler) DeleteReview(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	reviewID, ok := idParam(c, "reviewId")
	if !ok {
		return
	}
	if err := h.service.DeleteReview(c.Request.Context(), user.ID, reviewID); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
