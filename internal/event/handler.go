package event

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/campus-events-backend/internal/attachment"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
)

type Handler struct {
	service Service
	files   *attachment.Manager
}

func NewHandler(s Service, files *attachment.Manager) *Handler {
	return &Handler{service: s, files: files}
}

// CreateEventRequest is the multipart form of a new event. Files go in "files".
type CreateEventRequest struct {
	Title       string    `form:"title" binding:"required"`
	Description string    `form:"description" binding:"required"`
	Category    string    `form:"category" binding:"required,eventcategory"`
	Location    string    `form:"location" binding:"required"`
	Faculty     string    `form:"faculty"`
	Department  string    `form:"department"`
	Contact     string    `form:"contact"`
	Date        time.Time `form:"date" time_format:"2006-01-02" binding:"required"`
	Time        string    `form:"time" binding:"required,hhmm"`
	Capacity    int       `form:"capacity" binding:"required,min=1"`
	TitleImage  string    `form:"titleImage"`
}

// UpdateEventRequest only carries the fields being changed.
type UpdateEventRequest struct {
	Title             *string    `form:"title"`
	Description       *string    `form:"description"`
	Category          *string    `form:"category" binding:"omitempty,eventcategory"`
	Location          *string    `form:"location"`
	Faculty           *string    `form:"faculty"`
	Department        *string    `form:"department"`
	Contact           *string    `form:"contact"`
	Date              *time.Time `form:"date" time_format:"2006-01-02"`
	Time              *string    `form:"time" binding:"omitempty,hhmm"`
	Capacity          *int       `form:"capacity" binding:"omitempty,min=1"`
	TitleImage        string     `form:"titleImage"`
	DeleteAttachments []string   `form:"deleteAttachments"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateEvent godoc
// @Summary Propose a new event
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "title"
// @Param date formData string true "YYYY-MM-DD"
// @Param time formData string true "HH:MM"
// @Param files formData file false "attachments"
// @Success 201 {object} PendingEvent
// @Security BearerAuth
// @Router /api/v1/events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	uploads, err := h.saveFiles(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	p, err := h.service.CreateEvent(c.Request.Context(), user, CreateEventInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Location:       req.Location,
		Faculty:        req.Faculty,
		Department:     req.Department,
		Contact:        req.Contact,
		Date:           req.Date,
		Time:           req.Time,
		Capacity:       req.Capacity,
		TitleImageName: req.TitleImage,
	}, uploads)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateEvent godoc
// @Summary Propose changes to an approved event
// @Tags Events
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "event id"
// @Success 202 {object} PendingEvent
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/events/{id} [put]
func (h *Handler) UpdateEvent(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input: " + err.Error()})
		return
	}
	uploads, err := h.saveFiles(c)
	if err != nil {
		apperror.Respond(c, err)
		return
	}

	p, err := h.service.ProposeUpdate(c.Request.Context(), user, id, UpdateEventInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Location:          req.Location,
		Faculty:           req.Faculty,
		Department:        req.Department,
		Contact:           req.Contact,
		Date:              req.Date,
		Time:              req.Time,
		Capacity:          req.Capacity,
		TitleImageName:    req.TitleImage,
		DeleteAttachments: req.DeleteAttachments,
	}, uploads)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusAccepted, p)
}

// DeleteEvent godoc
// @Summary Delete a live, pending or rejected event
// @Tags Events
// @Param id path int true "event id"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/events/{id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteEvent(c.Request.Context(), user, id); err != nil {
		apperror.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApproveEvent godoc
// @Summary Approve a pending event or edit
// @Tags Moderation
// @Produce json
// @Param id path int true "pending event id"
// @Success 200 {object} Event
// @Security BearerAuth
// @Router /api/v1/events/{id}/approve [post]
func (h *Handler) ApproveEvent(c *gin.Context) {
	admin, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.service.Approve(c.Request.Context(), admin.ID, id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// RejectEvent godoc
// @Summary Reject a pending event or edit
// @Tags Moderation
// @Accept json
// @Produce json
// @Param id path int true "pending event id"
// @Param body body RejectRequest true "reason"
// @Success 200 {object} RejectedEvent
// @Security BearerAuth
// @Router /api/v1/events/{id}/reject [post]
func (h *Handler) RejectEvent(c *gin.Context) {
	admin, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejection reason is required"})
		return
	}
	r, err := h.service.Reject(c.Request.Context(), admin.ID, id, req.Reason)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GetEvent godoc
// @Summary Get an approved event
// @Tags Events
// @Produce json
// @Param id path int true "event id"
// @Success 200 {object} Event
// @Router /api/v1/events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// ListEvents godoc
// @Summary List approved events
// @Tags Events
// @Produce json
// @Param page query int false "page (default 1)"
// @Param limit query int false "page size (default 10)"
// @Param category query string false "category"
// @Param faculty query string false "faculty"
// @Param department query string false "department"
// @Param location query string false "location"
// @Param organizer query string false "organization"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {object} Page[Event]
// @Router /api/v1/events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))

	f := Filter{
		Category:   c.Query("category"),
		Faculty:    c.Query("faculty"),
		Department: c.Query("department"),
		Location:   c.Query("location"),
		Organizer:  c.Query("organizer"),
	}
	var err error
	if f.StartDate, err = parseDateQuery(c, "startDate"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate, use YYYY-MM-DD"})
		return
	}
	if f.EndDate, err = parseDateQuery(c, "endDate"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate, use YYYY-MM-DD"})
		return
	}

	result, err := h.service.ListApproved(c.Request.Context(), f, page, limit)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListPending godoc
// @Summary List proposals awaiting moderation
// @Tags Moderation
// @Produce json
// @Success 200 {array} PendingEvent
// @Security BearerAuth
// @Router /api/v1/events/pending [get]
func (h *Handler) ListPending(c *gin.Context) {
	items, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListRejected godoc
// @Summary List rejected proposals
// @Tags Moderation
// @Produce json
// @Success 200 {array} RejectedEvent
// @Security BearerAuth
// @Router /api/v1/events/rejected [get]
func (h *Handler) ListRejected(c *gin.Context) {
	items, err := h.service.ListRejected(c.Request.Context())
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListMine godoc
// @Summary List my events across live, pending and rejected
// @Tags Events
// @Produce json
// @Success 200 {array} Record
// @Security BearerAuth
// @Router /api/v1/events/mine [get]
func (h *Handler) ListMine(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	items, err := h.service.ListByAuthor(c.Request.Context(), user.ID)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListOrganization godoc
// @Summary List live events of my organization
// @Tags Events
// @Produce json
// @Success 200 {array} Event
// @Security BearerAuth
// @Router /api/v1/events/organization [get]
func (h *Handler) ListOrganization(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	items, err := h.service.ListOrganizationEvents(c.Request.Context(), user)
	if err != nil {
		apperror.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) saveFiles(c *gin.Context) ([]attachment.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperror.Validation("", "invalid multipart form")
	}
	return h.files.SaveUploads(c.Request.Context(), form.File["files"])
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event ID"})
		return 0, false
	}
	return uint(id), true
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
