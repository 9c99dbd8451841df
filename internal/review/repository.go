package review

import (
	"context"

	"gorm.io/gorm"
)

// recomputeRating refreshes the live event's aggregate from its reviews.
const recomputeRating = `UPDATE events SET
	average_rating = COALESCE((SELECT ROUND(AVG(rating)::numeric, 1) FROM reviews WHERE event_id = @id), 0),
	review_count = (SELECT COUNT(*) FROM reviews WHERE event_id = @id)
WHERE id = @id`

type Repository interface {
	// Create inserts the review and refreshes the event's rating in one transaction.
	Create(ctx context.Context, r *Review) error
	// Delete removes the review and refreshes the event's rating in one transaction.
	Delete(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id uint) (*Review, error)
	Exists(ctx context.Context, userID, eventID uint) (bool, error)
	ListByEvent(ctx context.Context, eventID uint) ([]Review, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, rv *Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(rv).Error; err != nil {
			return err
		}
		return tx.Exec(recomputeRating, map[string]interface{}{"id": rv.EventID}).Error
	})
}

func (r *repository) Delete(ctx context.Context, rv *Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Review{}, rv.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Exec(recomputeRating, map[string]interface{}{"id": rv.EventID}).Error
	})
}

func (r *repository) FindByID(ctx context.Context, id uint) (*Review, error) {
	var rv Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *repository) Exists(ctx context.Context, userID, eventID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Review{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) ListByEvent(ctx context.Context, eventID uint) ([]Review, error) {
	var items []Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}
