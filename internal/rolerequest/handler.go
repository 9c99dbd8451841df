package rolerequest

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

// Create godoc
// @Summary Request a role upgrade
// @Tags RoleRequests
// @Accept json
// @Produce json
// @Param input body CreateInput true "request"
// @Success 201 {object} RoleRequest
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/role-requests [post]
func (h *Handler) Create(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rr, err := h.service.Create(c.Request.Context(), user.ID, input)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, rr)
}

// CancelPending godoc
// @Summary Withdraw my pending role request
// @Tags RoleRequests
// @Success 204
// @Security BearerAuth
// @Router /api/v1/role-requests/me [delete]
func (h *Handler) CancelPending(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.service.CancelPending(c.Request.Context(), user.ID); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMine godoc
// @Summary List my role requests
// @Tags RoleRequests
// @Success 200 {array} RoleRequest
// @Security BearerAuth
// @Router /api/v1/role-requests/me [get]
func (h *Handler) ListMine(c *gin.Context) {
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

// List godoc
// @Summary List role requests (admin)
// @Tags RoleRequests
// @Param status query string false "pending | approved | rejected"
// @Success 200 {array} RoleRequest
// @Security BearerAuth
// @Router /api/v1/admin/role-requests [get]
func (h *Handler) List(c *gin.Context) {
	status := Status(c.Query("status"))
	switch status {
	case "", StatusPending, StatusApproved, StatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	items, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Approve godoc
// @Summary Approve a role request (admin)
// @Tags RoleRequests
// @Param id path int true "request id"
// @Success 200 {object} RoleRequest
// @Security BearerAuth
// @Router /api/v1/admin/role-requests/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	admin, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}
	rr, err := h.service.Approve(c.Request.Context(), admin.ID, id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rr)
}

// Reject godoc
// @Summary Reject a role request (admin)
// @Tags RoleRequests
// @Accept json
// @Param id path int true "request id"
// @Param input body RejectInput true "reason"
// @Success 200 {object} RoleRequest
// @Security BearerAuth
// @Router /api/v1/admin/role-requests/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	admin, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := requestID(c)
	if !ok {
		return
	}
	var input RejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rr, err := h.service.Reject(c.Request.Context(), admin.ID, id, input.Reason)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rr)
}

func requestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
		return 0, false
	}
	return uint(id), true
}
