package rolerequest

import (
	"time"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// RoleRequest asks an admin to upgrade a user to student_rep or organizer.
// At most one pending request per user is enforced by a partial unique index.
type RoleRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"userId"`
	RequestedRole    string     `gorm:"size:32;not null" json:"requestedRole"`
	University       string     `gorm:"size:255" json:"university,omitempty"`
	Represents       string     `gorm:"size:255" json:"represents,omitempty"`
	OrganizationName string     `gorm:"size:255" json:"organizationName,omitempty"`
	Description      string     `gorm:"type:text" json:"description,omitempty"`
	Status           Status     `gorm:"size:16;not null;default:pending;index" json:"status"`
	RejectionReason  string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	ProcessedBy      *uint      `json:"processedBy,omitempty"`
	ProcessedAt      *time.Time `json:"processedAt,omitempty"`
	User             *auth.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (RoleRequest) TableName() string { return "role_requests" }

type CreateInput struct {
	RequestedRole    string `json:"requestedRole" binding:"required,oneof=student_rep organizer"`
	University       string `json:"university" binding:"omitempty,max=255"`
	Represents       string `json:"represents" binding:"omitempty,max=255"`
	OrganizationName string `json:"organizationName" binding:"omitempty,max=255"`
	Description      string `json:"description" binding:"omitempty,max=1000"`
}

type RejectInput struct {
	Reason string `json:"reason" binding:"required"`
}

// affiliationFields is what an approval writes onto the user. Organizers
// lose any student affiliation and vice versa.
func (r RoleRequest) affiliationFields() map[string]interface{} {
	fields := map[string]interface{}{"role": r.RequestedRole}
	switch r.RequestedRole {
	case auth.RoleOrganizer:
		fields["organization_name"] = r.OrganizationName
		fields["university"] = ""
		fields["represents"] = ""
	case auth.RoleStudentRep:
		fields["university"] = r.University
		fields["represents"] = r.Represents
		fields["organization_name"] = ""
	}
	return fields
}
