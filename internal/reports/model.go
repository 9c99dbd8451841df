package reports

import (
	"time"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "xlsx"
	FormatPDF   = "pdf"

	DeletedUserName = "Deleted User"

	DefaultParticipantLimit = 20
	MaxParticipantLimit     = 100
)

// ParticipantRow is one registration joined with its (possibly deleted) user.
type ParticipantRow struct {
	UserID           *uint
	FullName         *string
	Email            *string
	Role             *string
	University       *string
	Represents       *string
	OrganizationName *string
	HasCheckedIn     bool
	RegisteredAt     time.Time
}

type Participant struct {
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	University       *string    `json:"university"`
	Represents       *string    `json:"represents"`
	OrganizationName *string    `json:"organizationName"`
	HasCheckedIn     bool       `json:"hasCheckedIn"`
	RegisteredAt     *time.Time `json:"registeredAt"`
}

// Participant renders the row; registrations whose user is gone become a
// placeholder without contact details.
func (r ParticipantRow) Participant() Participant {
	if r.UserID == nil {
		return Participant{Name: DeletedUserName, Email: "-", Role: "-", HasCheckedIn: r.HasCheckedIn}
	}
	at := r.RegisteredAt
	return Participant{
		Name:             deref(r.FullName),
		Email:            deref(r.Email),
		Role:             deref(r.Role),
		University:       nonEmpty(r.University),
		Represents:       nonEmpty(r.Represents),
		OrganizationName: nonEmpty(r.OrganizationName),
		HasCheckedIn:     r.HasCheckedIn,
		RegisteredAt:     &at,
	}
}

type ParticipantsPage struct {
	EventID      uint          `json:"eventId"`
	Participants []Participant `json:"participants"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
}

type EventStatistics struct {
	TotalParticipants int64   `json:"totalParticipants"`
	CheckedIn         int64   `json:"checkedIn"`
	EngagementRate    int     `json:"engagementRate"`
	ReviewCount       int64   `json:"reviewCount"`
	AverageRating     float64 `json:"averageRating"`
}

type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type OrganizationCount struct {
	Name   string `json:"name"`
	Events int64  `json:"events"`
}

// Overview is the admin dashboard summary.
type Overview struct {
	TotalEvents      int64               `json:"totalEvents"`
	EventsLastMonth  int64               `json:"eventsLastMonth"`
	AverageOccupancy int                 `json:"averageOccupancy"`
	MonthlyActivity  []MonthCount        `json:"monthlyActivity"`
	TopOrganizations []OrganizationCount `json:"topOrganizations"`
}

// ExportMeta heads every export.
type ExportMeta struct {
	EventTitle  string
	GeneratedBy string
	GeneratedAt time.Time
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
