package userprofile

import (
	"context"

	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

type Repository interface {
	Get(ctx context.Context, userID uint) (*auth.User, error)
	// Apply writes columns onto the user row and returns the stored result.
	Apply(ctx context.Context, userID uint, columns map[string]interface{}) (*auth.User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, userID uint) (*auth.User, error) {
	var u auth.User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Apply(ctx context.Context, userID uint, columns map[string]interface{}) (*auth.User, error) {
	var u auth.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&auth.User{}).Where("id = ?", userID).Updates(columns)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&u, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
