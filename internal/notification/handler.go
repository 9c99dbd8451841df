package notification

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

// GetMyNotifications godoc
// @Summary List my notifications, newest first
// @Tags Notifications
// @Produce json
// @Param limit query int false "max items (default 50)"
// @Success 200 {array} Notification
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (h *Handler) GetMyNotifications(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	items, err := h.service.List(c.Request.Context(), user.ID, limit)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetUnreadCount godoc
// @Summary Count my unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} UnreadCount
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (h *Handler) GetUnreadCount(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	n, err := h.service.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, UnreadCount{Count: n})
}

// MarkAsRead godoc
// @Summary Mark one of my notifications as read
// @Tags Notifications
// @Produce json
// @Param id path int true "notification id"
// @Success 200 {object} Notification
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [put]
func (h *Handler) MarkAsRead(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	n, err := h.service.MarkAsRead(c.Request.Context(), uint(id), user.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

// MarkAllAsRead godoc
// @Summary Mark all my notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [put]
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	n, err := h.service.MarkAllAsRead(c.Request.Context(), user.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modifiedCount": n})
}

// DeleteNotification godoc
// @Summary Delete one of my notifications
// @Tags Notifications
// @Param id path int true "notification id"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/notifications/{id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := h.service.Delete(c.Request.Context(), uint(id), user.ID); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type DeviceTokenRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceType string `json:"deviceType" binding:"omitempty,oneof=android ios web"`
	DeviceName string `json:"deviceName"`
}

// RegisterDeviceToken godoc
// @Summary Register a push device token
// @Tags Notifications
// @Accept json
// @Param body body DeviceTokenRequest true "device"
// @Success 201 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/notifications/device-tokens [post]
func (h *Handler) RegisterDeviceToken(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.RegisterDeviceToken(c.Request.Context(), user.ID, req.Token, req.DeviceType, req.DeviceName); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "device token registered"})
}

// RemoveDeviceToken godoc
// @Summary Remove a push device token
// @Tags Notifications
// @Accept json
// @Param body body DeviceTokenRequest true "device"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/notifications/device-tokens [delete]
func (h *Handler) RemoveDeviceToken(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.RemoveDeviceToken(c.Request.Context(), user.ID, req.Token); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
