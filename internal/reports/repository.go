package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/internal/registration"
	"github.com/sharath018/campus-events-backend/internal/review"
)

type Repository interface {
	// Participants returns registrations newest first. limit <= 0 returns all.
	Participants(ctx context.Context, eventID uint, offset, limit int) ([]ParticipantRow, int64, error)
	CountCheckedIn(ctx context.Context, eventID uint) (int64, error)
	RatingSummary(ctx context.Context, eventID uint) (count int64, average float64, err error)

	CountEvents(ctx context.Context, from, to *time.Time) (int64, error)
	TotalCapacity(ctx context.Context) (int64, error)
	CountRegistrations(ctx context.Context) (int64, error)
	EventsPerMonth(ctx context.Context, from, to time.Time) (map[int]int64, error)
	TopOrganizations(ctx context.Context, limit int) ([]OrganizationCount, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Participants(ctx context.Context, eventID uint, offset, limit int) ([]ParticipantRow, int64, error) {
	base := r.db.WithContext(ctx).Model(&registration.Registration{}).Where("registrations.event_id = ?", eventID).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base.
		Select(`users.id AS user_id, users.full_name, users.email, users.role, users.university,
			users.represents, users.organization_name, registrations.has_checked_in,
			registrations.created_at AS registered_at`).
		Joins("LEFT JOIN users ON users.id = registrations.user_id").
		Order("registrations.created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}

	var rows []ParticipantRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) CountCheckedIn(ctx context.Context, eventID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&registration.Registration{}).
		Where("event_id = ? AND has_checked_in = ?", eventID, true).
		Count(&n).Error
	return n, err
}

func (r *repository) RatingSummary(ctx context.Context, eventID uint) (int64, float64, error) {
	var out struct {
		Count   int64
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&review.Review{}).
		Select("COUNT(*) AS count, COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS average").
		Where("event_id = ?", eventID).
		Scan(&out).Error
	return out.Count, out.Average, err
}

func (r *repository) CountEvents(ctx context.Context, from, to *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&event.Event{})
	if from != nil {
		q = q.Where("starts_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("starts_at <= ?", *to)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (r *repository) TotalCapacity(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&event.Event{}).Select("COALESCE(SUM(capacity), 0)").Scan(&n).Error
	return n, err
}

func (r *repository) CountRegistrations(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&registration.Registration{}).Count(&n).Error
	return n, err
}

func (r *repository) EventsPerMonth(ctx context.Context, from, to time.Time) (map[int]int64, error) {
	var rows []struct {
		Month int
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&event.Event{}).
		Select("EXTRACT(MONTH FROM date)::int AS month, COUNT(*) AS count").
		Where("starts_at BETWEEN ? AND ?", from, to).
		Group("month").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, len(rows))
	for _, row := range rows {
		out[row.Month] = row.Count
	}
	return out, nil
}

func (r *repository) TopOrganizations(ctx context.Context, limit int) ([]OrganizationCount, error) {
	var out []OrganizationCount
	err := r.db.WithContext(ctx).
		Model(&event.Event{}).
		Select("COALESCE(NULLIF(organizer_organization_name, ''), NULLIF(organizer_represents, '')) AS name, COUNT(*) AS events").
		Where("COALESCE(NULLIF(organizer_organization_name, ''), NULLIF(organizer_represents, '')) IS NOT NULL").
		Group("name").
		Order("events DESC, name").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
