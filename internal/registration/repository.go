package registration

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/event"
)

var (
	ErrEventFull        = errors.New("event is at capacity")
	ErrAlreadyCheckedIn = errors.New("ticket already checked in")
)

type Repository interface {
	// Create inserts reg and takes one seat on its event in the same transaction.
	Create(ctx context.Context, reg *Registration) error
	// Delete removes the pair's registration and frees its seat.
	Delete(ctx context.Context, userID, eventID uint) error
	Find(ctx context.Context, userID, eventID uint) (*Registration, error)
	FindByTicket(ctx context.Context, code string) (*Registration, error)
	ListByUser(ctx context.Context, userID uint) ([]Registration, error)
	MarkCheckedIn(ctx context.Context, id uint, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, reg *Registration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Event").Create(reg).Error; err != nil {
			return err
		}
		res := tx.Model(&event.Event{}).
			Where("id = ? AND attendees < capacity", reg.EventID).
			UpdateColumn("attendees", gorm.Expr("attendees + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEventFull
		}
		return nil
	})
}

func (r *repository) Delete(ctx context.Context, userID, eventID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND event_id = ?", userID, eventID).Delete(&Registration{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&event.Event{}).
			Where("id = ? AND attendees > 0", eventID).
			UpdateColumn("attendees", gorm.Expr("attendees - ?", 1)).Error
	})
}

func (r *repository) Find(ctx context.Context, userID, eventID uint) (*Registration, error) {
	var reg Registration
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repository) FindByTicket(ctx context.Context, code string) (*Registration, error) {
	var reg Registration
	if err := r.db.WithContext(ctx).Where("ticket_code = ?", code).First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]Registration, error) {
	var items []Registration
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *repository) MarkCheckedIn(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Registration{}).
		Where("id = ? AND has_checked_in = ?", id, false).
		Updates(map[string]interface{}{"has_checked_in": true, "checked_in_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}
