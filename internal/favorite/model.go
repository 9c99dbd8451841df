package favorite

import (
	"time"

	"github.com/sharath018/campus-events-backend/internal/event"
)

type Favorite struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_favorites_user_event" json:"userId"`
	EventID      uint         `gorm:"not null;uniqueIndex:idx_favorites_user_event;index" json:"eventId"`
	ReminderSent bool         `gorm:"not null;default:false;index" json:"reminderSent"`
	Event        *event.Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (Favorite) TableName() string { return "favorites" }
