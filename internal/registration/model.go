package registration

import (
	"time"

	"github.com/sharath018/campus-events-backend/internal/event"
)

// Check-in opens this long before an event starts and closes this long after.
const (
	CheckInOpensBefore = 3 * time.Hour
	CheckInClosesAfter = 24 * time.Hour
)

// Registration is one user's ticket for one event.
type Registration struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_registrations_user_event" json:"userId"`
	EventID      uint         `gorm:"not null;uniqueIndex:idx_registrations_user_event;index" json:"eventId"`
	TicketCode   string       `gorm:"size:36;not null;uniqueIndex" json:"ticketCode"`
	HasCheckedIn bool         `gorm:"not null;default:false" json:"hasCheckedIn"`
	CheckedInAt  *time.Time   `json:"checkedInAt,omitempty"`
	ReminderSent bool         `gorm:"not null;default:false;index" json:"reminderSent"`
	Event        *event.Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (Registration) TableName() string { return "registrations" }
