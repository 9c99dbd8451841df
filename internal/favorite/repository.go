package favorite

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, f *Favorite) error
	Delete(ctx context.Context, userID, eventID uint) error
	Exists(ctx context.Context, userID, eventID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]Favorite, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, f *Favorite) error {
	return r.db.WithContext(ctx).Omit("Event").Create(f).Error
}

func (r *repository) Delete(ctx context.Context, userID, eventID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Delete(&Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Exists(ctx context.Context, userID, eventID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Favorite{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]Favorite, error) {
	var items []Favorite
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
