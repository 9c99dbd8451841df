package auditlog

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

type Service interface {
	// LogAction never fails the caller's operation; write errors are logged.
	LogAction(ctx context.Context, e Entry)
	GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error)
	GetAuditLogByID(ctx context.Context, id uint) (*AuditLogResponse, error)
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

type service struct {
	repo  Repository
	clock utils.Clock
	log   zerolog.Logger
}

func NewService(repo Repository, clock utils.Clock, log zerolog.Logger) Service {
	return &service{repo: repo, clock: clock, log: log}
}

func (s *service) LogAction(ctx context.Context, e Entry) {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}
	if e.IP == "" {
		e.IP = IPFromContext(ctx)
	}

	entry := &AuditLog{
		UserID:    e.UserID,
		EventID:   e.EventID,
		Action:    e.Action,
		Details:   e.Details,
		IPAddress: e.IP,
		Status:    e.Status,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", e.Action).Msg("⚠️ failed to write audit log")
	}
}

func (s *service) GetAuditLogs(ctx context.Context, filter AuditLogFilter) (*PaginatedAuditLogs, error) {
	logs, total, err := s.repo.GetByFilter(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	return &PaginatedAuditLogs{
		Data:       logs,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *service) GetAuditLogByID(ctx context.Context, id uint) (*AuditLogResponse, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("audit log not found")
		}
		return nil, apperror.Internal(err)
	}
	return log, nil
}

// GetStats summarizes the last 7 days by action and status.
func (s *service) GetStats(ctx context.Context) (map[string]interface{}, error) {
	since := s.clock.Now().AddDate(0, 0, -7)
	counts, err := s.repo.CountByAction(ctx, since)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	var total, success, failure int64
	breakdown := map[string]int64{}
	for _, c := range counts {
		total += c.Count
		breakdown[c.Action] += c.Count
		if c.Status == StatusSuccess {
			success += c.Count
		} else {
			failure += c.Count
		}
	}

	return map[string]interface{}{
		"total_last_7_days": total,
		"success_count":     success,
		"failure_count":     failure,
		"action_breakdown":  breakdown,
	}, nil
}
