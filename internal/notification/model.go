package notification

import (
	"fmt"
	"time"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

type Type string

const (
	TypeEventApproved           Type = "event_approved"
	TypeEventRejected           Type = "event_rejected"
	TypeRoleApproved            Type = "role_approved"
	TypeRoleRejected            Type = "role_rejected"
	TypeRegisteredEventReminder Type = "registered_event_reminder"
	TypeFavoriteEventReminder   Type = "favorite_event_reminder"
	TypeRegisteredEventUpdated  Type = "registered_event_updated"
	TypeFavoriteEventUpdated    Type = "favorite_event_updated"
	TypeEventDeleted            Type = "event_deleted"
)

func (t Type) Valid() bool {
	switch t {
	case TypeEventApproved, TypeEventRejected, TypeRoleApproved, TypeRoleRejected,
		TypeRegisteredEventReminder, TypeFavoriteEventReminder,
		TypeRegisteredEventUpdated, TypeFavoriteEventUpdated, TypeEventDeleted:
		return true
	}
	return false
}

// Topic maps a notification type onto the preference switch that gates it.
// Moderation outcomes have no switch and are always delivered.
func (t Type) Topic() auth.Topic {
	switch t {
	case TypeRegisteredEventUpdated, TypeFavoriteEventUpdated, TypeEventDeleted:
		return auth.TopicEventUpdates
	case TypeRegisteredEventReminder, TypeFavoriteEventReminder:
		return auth.TopicEventReminders
	}
	return ""
}

// Notification is the in-app record shown in a user's bell.
type Notification struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"userId"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Message          string    `gorm:"type:text;not null" json:"message"`
	Type             Type      `gorm:"size:40;not null" json:"type"`
	RelatedEventID   *uint     `gorm:"index" json:"relatedEvent,omitempty"`
	RelatedRequestID *uint     `json:"relatedRequest,omitempty"`
	IsRead           bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt        time.Time `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (Notification) TableName() string { return "notifications" }

// DeviceToken is a push registration owned by one user.
type DeviceToken struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	Token      string    `gorm:"size:255;not null;uniqueIndex" json:"token"`
	DeviceType string    `gorm:"size:20" json:"deviceType"` // android, ios, web
	DeviceName string    `gorm:"size:100" json:"deviceName"`
	IsActive   bool      `gorm:"not null;default:true" json:"isActive"`
	LastUsedAt time.Time `json:"lastUsedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (DeviceToken) TableName() string { return "device_tokens" }

// CreateInput describes one notification for one user.
type CreateInput struct {
	UserID           uint
	Title            string
	Message          string
	Type             Type
	RelatedEventID   *uint
	RelatedRequestID *uint
}

// ChannelKind names an out-of-band delivery channel.
type ChannelKind string

const (
	ChannelEmail ChannelKind = "email"
	ChannelPush  ChannelKind = "push"
)

// Delivery is one queued email or push message. Email deliveries carry the
// address; push deliveries resolve device tokens when they are sent.
type Delivery struct {
	NotificationID uint        `json:"notificationId,omitempty"`
	UserID         uint        `json:"userId"`
	Channel        ChannelKind `json:"channel"`
	To             string      `json:"to,omitempty"`
	Subject        string      `json:"subject"`
	Body           string      `json:"body"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// Audience is everybody attached to one event, split by how they are attached.
type Audience struct {
	Registered []uint
	Favorited  []uint
}

// Target is one recipient of an event fan-out.
type Target struct {
	UserID     uint
	Registered bool
}

// Targets returns registered users first, then users who only favorited the
// event. Each user appears once.
func (a Audience) Targets() []Target {
	seen := make(map[uint]struct{}, len(a.Registered)+len(a.Favorited))
	out := make([]Target, 0, len(a.Registered)+len(a.Favorited))
	for _, id := range a.Registered {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Target{UserID: id, Registered: true})
	}
	for _, id := range a.Favorited {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Target{UserID: id})
	}
	return out
}

// ReminderKind distinguishes ticket reminders from favorite reminders.
type ReminderKind string

const (
	ReminderRegistration ReminderKind = "registration"
	ReminderFavorite     ReminderKind = "favorite"
)

func (k ReminderKind) notificationType() Type {
	if k == ReminderFavorite {
		return TypeFavoriteEventReminder
	}
	return TypeRegisteredEventReminder
}

func reminderText(kind ReminderKind, eventTitle string) (string, string) {
	if kind == ReminderFavorite {
		return "Favorite Event", fmt.Sprintf("Reminder: Your favorite event '%s' starts in 24 hours!", eventTitle)
	}
	return "Event Reminder", fmt.Sprintf("Don't forget! You have a ticket for '%s' tomorrow.", eventTitle)
}

func updatedText(registered bool, eventTitle string) (Type, string, string) {
	if registered {
		return TypeRegisteredEventUpdated, "Event Updated",
			fmt.Sprintf("An event you registered for, '%s', has been updated. Check the new details.", eventTitle)
	}
	return TypeFavoriteEventUpdated, "Event Updated",
		fmt.Sprintf("Your favorite event '%s' has been updated. Check the new details.", eventTitle)
}

func deletedText(eventTitle string) (string, string) {
	return "Event Cancelled", fmt.Sprintf("The event '%s' has been cancelled by the organizer.", eventTitle)
}

type UnreadCount struct {
	Count int64 `json:"count"`
}
