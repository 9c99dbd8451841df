package auth

import (
	"strings"
	"time"
)

const (
	RoleSimpleUser = "simple_user"
	RoleStudent    = "student"
	RoleStudentRep = "student_rep"
	RoleOrganizer  = "organizer"
	RoleAdmin      = "admin"
)

// Topic groups notification kinds that share one preference switch.
type Topic string

const (
	TopicEventUpdates   Topic = "event_updates"
	TopicEventReminders Topic = "event_reminders"
)

// Preferences are the per-user notification switches. All default to on.
type Preferences struct {
	NotifyEventUpdated  bool `gorm:"not null;default:true" json:"notifyEventUpdated"`
	NotifyEventReminder bool `gorm:"not null;default:true" json:"notifyEventReminder"`
	EmailEventUpdated   bool `gorm:"not null;default:true" json:"emailEventUpdated"`
	EmailEventReminder  bool `gorm:"not null;default:true" json:"emailEventReminder"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		NotifyEventUpdated:  true,
		NotifyEventReminder: true,
		EmailEventUpdated:   true,
		EmailEventReminder:  true,
	}
}

// InApp reports whether in-app (and push) notifications are enabled for t.
// Topics without a switch, such as moderation outcomes, are always delivered.
func (p Preferences) InApp(t Topic) bool {
	switch t {
	case TopicEventUpdates:
		return p.NotifyEventUpdated
	case TopicEventReminders:
		return p.NotifyEventReminder
	}
	return true
}

func (p Preferences) Email(t Topic) bool {
	switch t {
	case TopicEventUpdates:
		return p.EmailEventUpdated
	case TopicEventReminders:
		return p.EmailEventReminder
	}
	return true
}

type User struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	FullName         string      `gorm:"size:255;not null" json:"fullName"`
	Email            string      `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash     string      `gorm:"size:255" json:"-"`
	FirebaseUID      *string     `gorm:"size:128;uniqueIndex" json:"-"`
	Role             string      `gorm:"size:32;not null;default:simple_user;index" json:"role"`
	University       string      `gorm:"size:255" json:"university,omitempty"`
	Represents       string      `gorm:"size:255" json:"represents,omitempty"`
	OrganizationName string      `gorm:"size:255" json:"organizationName,omitempty"`
	Preferences      Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// MatchesOrganizer compares the user's affiliation with an event organizer.
// Either field matching is enough; empty values never match.
func (u User) MatchesOrganizer(represents, organizationName string) bool {
	return sameAffiliation(u.Represents, represents) || sameAffiliation(u.OrganizationName, organizationName)
}

// HasAffiliation reports whether the user speaks for any organization at all.
func (u User) HasAffiliation() bool {
	return strings.TrimSpace(u.Represents) != "" || strings.TrimSpace(u.OrganizationName) != ""
}

func sameAffiliation(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// Contact is the author's public reference attached to moderation output.
type Contact struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
