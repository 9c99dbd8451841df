package event

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/sharath018/campus-events-backend/internal/attachment"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

const dateLayout = "2006-01-02"

// Organizer is the affiliation an event is published under, copied from the
// author when the event is proposed.
type Organizer struct {
	Represents       string `gorm:"size:255;index" json:"represents,omitempty"`
	OrganizationName string `gorm:"size:255;index" json:"organizationName,omitempty"`
	Contact          string `gorm:"size:255" json:"contact,omitempty"`
}

// EventFields is the column set shared by the live, pending and rejected stores.
type EventFields struct {
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"size:32;not null;index" json:"category"`
	Location    string `gorm:"size:255;not null" json:"location"`
	Faculty     string `gorm:"size:255" json:"faculty,omitempty"`
	Department  string `gorm:"size:255" json:"department,omitempty"`

	Date     time.Time `gorm:"type:date;not null;index" json:"date"`
	Time     string    `gorm:"size:5;not null" json:"time"`
	StartsAt time.Time `gorm:"not null;index" json:"startsAt"`

	Capacity      int     `gorm:"not null" json:"capacity"`
	Attendees     int     `gorm:"not null;default:0" json:"attendees"`
	AverageRating float64 `gorm:"not null;default:0" json:"averageRating"`
	ReviewCount   int     `gorm:"not null;default:0" json:"reviewCount"`

	Organizer   Organizer                                 `gorm:"embedded;embeddedPrefix:organizer_" json:"organizer"`
	Attachments datatypes.JSONSlice[attachment.Attachment] `gorm:"type:jsonb" json:"attachments"`
	TitleImage  *string                                   `gorm:"size:512" json:"titleImage"`

	Status          Status     `gorm:"size:16;not null" json:"status"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	AuthorID        uint       `gorm:"not null;index" json:"authorId"`
	ProcessedBy     *uint      `json:"processedBy,omitempty"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
	UpdatedBy       *uint      `json:"updatedBy,omitempty"`

	// Files removed by an edit proposal; deleted from storage once the edit is approved.
	PendingDeletedFileURLs datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"pendingDeletedFileUrls,omitempty"`
}

// Event is an approved, publicly visible event.
type Event struct {
	ID uint `gorm:"primaryKey;autoIncrement:false;default:nextval('event_ids')" json:"id"`
	EventFields
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Event) TableName() string { return "events" }

// PendingEvent is a proposal awaiting moderation. A nil TargetEventID marks a
// brand new event; otherwise it is a full snapshot of the target with edits applied.
type PendingEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement:false;default:nextval('event_ids')" json:"id"`
	EventFields
	TargetEventID *uint     `gorm:"uniqueIndex" json:"targetEventId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (PendingEvent) TableName() string { return "pending_events" }

type RejectedEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement:false;default:nextval('event_ids')" json:"id"`
	EventFields
	TargetEventID *uint     `gorm:"index" json:"targetEventId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (RejectedEvent) TableName() string { return "rejected_events" }

// Record is a store-agnostic view used where the three stores are listed together.
type Record struct {
	ID uint `json:"id"`
	EventFields
	TargetEventID *uint     `json:"targetEventId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (e Event) Record() Record {
	return Record{ID: e.ID, EventFields: e.EventFields, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (p PendingEvent) Record() Record {
	return Record{ID: p.ID, EventFields: p.EventFields, TargetEventID: p.TargetEventID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func (r RejectedEvent) Record() Record {
	return Record{ID: r.ID, EventFields: r.EventFields, TargetEventID: r.TargetEventID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// clone copies f so slices in the copy can be changed without touching f.
func (f EventFields) clone() EventFields {
	out := f
	out.Attachments = append(datatypes.JSONSlice[attachment.Attachment]{}, f.Attachments...)
	out.PendingDeletedFileURLs = append(datatypes.JSONSlice[string]{}, f.PendingDeletedFileURLs...)
	if f.TitleImage != nil {
		t := *f.TitleImage
		out.TitleImage = &t
	}
	return out
}

// StartInstant combines a calendar day with an "HH:MM" time of day in loc.
func StartInstant(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(hhmm), "%d:%d", &h, &m); err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return time.Time{}, fmt.Errorf("invalid time of day %q", hhmm)
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc), nil
}

// normalizeTime renders a valid time of day as zero padded "HH:MM".
func normalizeTime(hhmm string) string {
	var h, m int
	fmt.Sscanf(strings.TrimSpace(hhmm), "%d:%d", &h, &m)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// calendarDay strips the clock from t, keeping its calendar date.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateEventInput is an already bound create payload.
type CreateEventInput struct {
	Title          string
	Description    string
	Category       string
	Location       string
	Faculty        string
	Department     string
	Contact        string
	Date           time.Time
	Time           string
	Capacity       int
	TitleImageName string
}

// UpdateEventInput carries only the fields being changed.
type UpdateEventInput struct {
	Title             *string
	Description       *string
	Category          *string
	Location          *string
	Faculty           *string
	Department        *string
	Contact           *string
	Date              *time.Time
	Time              *string
	Capacity          *int
	TitleImageName    string
	DeleteAttachments []string // attachment ids
}

// Filter narrows the approved listing. Text filters match case-insensitively
// on substrings; the date range is inclusive.
type Filter struct {
	Category   string
	Faculty    string
	Department string
	Location   string
	Organizer  string
	StartDate  *time.Time
	EndDate    *time.Time
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
}
