package reminder

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/favorite"
	"github.com/sharath018/campus-events-backend/internal/registration"
)

// Candidate is an unsent registration or favorite reminder.
type Candidate struct {
	ID      uint
	UserID  uint
	EventID uint
}

type Repository interface {
	// PendingRegistrations returns unsent registrations whose event starts
	// before horizon or no longer exists.
	PendingRegistrations(ctx context.Context, horizon time.Time) ([]Candidate, error)
	PendingFavorites(ctx context.Context, horizon time.Time) ([]Candidate, error)
	MarkRegistrationSent(ctx context.Context, id uint) error
	MarkFavoriteSent(ctx context.Context, id uint) error
	HasRegistration(ctx context.Context, userID, eventID uint) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) pending(ctx context.Context, table string, horizon time.Time) ([]Candidate, error) {
	var out []Candidate
	err := r.db.WithContext(ctx).
		Table(table).
		Select(table+".id, "+table+".user_id, "+table+".event_id").
		Joins("LEFT JOIN events ON events.id = "+table+".event_id").
		Where(table+".reminder_sent = ?", false).
		Where("events.id IS NULL OR events.starts_at <= ?", horizon).
		Order(table + ".id").
		Scan(&out).Error
	return out, err
}

func (r *repository) PendingRegistrations(ctx context.Context, horizon time.Time) ([]Candidate, error) {
	return r.pending(ctx, "registrations", horizon)
}

func (r *repository) PendingFavorites(ctx context.Context, horizon time.Time) ([]Candidate, error) {
	return r.pending(ctx, "favorites", horizon)
}

func (r *repository) MarkRegistrationSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&registration.Registration{}).
		Where("id = ? AND reminder_sent = ?", id, false).
		UpdateColumn("reminder_sent", true).Error
}

func (r *repository) MarkFavoriteSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&favorite.Favorite{}).
		Where("id = ? AND reminder_sent = ?", id, false).
		UpdateColumn("reminder_sent", true).Error
}

func (r *repository) HasRegistration(ctx context.Context, userID, eventID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&registration.Registration{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&n).Error
	return n > 0, err
}
