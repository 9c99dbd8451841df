// Package audittest provides an in-memory auditlog.Service for service tests.
package audittest

import (
	"context"
	"sync"

	"github.com/sharath018/campus-events-backend/internal/auditlog"
)

type Recorder struct {
	mu      sync.Mutex
	Entries []auditlog.Entry
}

func (r *Recorder) LogAction(_ context.Context, e auditlog.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Status == "" {
		e.Status = auditlog.StatusSuccess
	}
	r.Entries = append(r.Entries, e)
}

func (r *Recorder) GetAuditLogs(context.Context, auditlog.AuditLogFilter) (*auditlog.PaginatedAuditLogs, error) {
	return &auditlog.PaginatedAuditLogs{}, nil
}

func (r *Recorder) GetAuditLogByID(context.Context, uint) (*auditlog.AuditLogResponse, error) {
	return nil, nil
}

func (r *Recorder) GetStats(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

// Actions returns the recorded action names in order.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, e.Action)
	}
	return out
}
