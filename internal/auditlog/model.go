package auditlog

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Actions recorded by the event workflow.
const (
	ActionEventCreated         = "EVENT_CREATED"
	ActionEventUpdateProposed  = "EVENT_UPDATE_PROPOSED"
	ActionEventApproved        = "EVENT_APPROVED"
	ActionEventRejected        = "EVENT_REJECTED"
	ActionEventDeleted         = "EVENT_DELETED"
	ActionRegistrationCreated  = "REGISTRATION_CREATED"
	ActionRegistrationCanceled = "REGISTRATION_CANCELED"
	ActionCheckIn              = "CHECK_IN"
	ActionRoleRequestApproved  = "ROLE_REQUEST_APPROVED"
	ActionRoleRequestRejected  = "ROLE_REQUEST_REJECTED"
	ActionParticipantsExported = "PARTICIPANTS_EXPORTED"
)

// AuditLog represents the audit_logs table
type AuditLog struct {
	ID        uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint             `gorm:"index" json:"user_id"`
	EventID   *uint             `gorm:"index" json:"event_id"`
	Action    string            `gorm:"size:100;not null;index" json:"action"`
	Details   datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	IPAddress string            `gorm:"size:45" json:"ip_address"`
	Status    string            `gorm:"size:20;not null;index" json:"status"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Entry is one action to record.
type Entry struct {
	UserID  *uint
	EventID *uint
	Action  string
	Details map[string]interface{}
	IP      string
	Status  string
}

type AuditLogResponse struct {
	ID        uint              `json:"id"`
	UserID    *uint             `json:"user_id"`
	EventID   *uint             `json:"event_id"`
	Action    string            `json:"action"`
	Details   datatypes.JSONMap `json:"details"`
	IPAddress string            `json:"ip_address"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UserName  *string           `json:"user_name,omitempty"`
}

type AuditLogFilter struct {
	UserID   *uint
	EventID  *uint
	Action   string
	Status   string
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	Limit    int
}

type PaginatedAuditLogs struct {
	Data       []AuditLogResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

type ActionCount struct {
	Action string `json:"action"`
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
