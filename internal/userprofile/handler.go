package userprofile

import (
	"net/http"

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

// GetMyProfile godoc
// @Summary Get my profile
// @Tags Profile
// @Produce json
// @Success 200 {object} auth.User
// @Security BearerAuth
// @Router /api/v1/profile [get]
func (h *Handler) GetMyProfile(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	u, err := h.service.Get(c.Request.Context(), user.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateMyProfile godoc
// @Summary Update my profile
// @Description Editable fields depend on the caller's role.
// @Tags Profile
// @Accept json
// @Produce json
// @Param input body ProfileInput true "fields to change"
// @Success 200 {object} auth.User
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/profile [patch]
func (h *Handler) UpdateMyProfile(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	var input ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), user.ID, input.Patch())
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateMyPreferences godoc
// @Summary Update my notification preferences
// @Tags Profile
// @Accept json
// @Produce json
// @Param input body PreferencesInput true "switches to change"
// @Success 200 {object} auth.User
// @Security BearerAuth
// @Router /api/v1/profile/preferences [patch]
func (h *Handler) UpdateMyPreferences(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	var input PreferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.service.UpdatePreferences(c.Request.Context(), user.ID, input)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
