package rolerequest

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

var ErrAlreadyProcessed = errors.New("role request already processed")

type Repository interface {
	Create(ctx context.Context, r *RoleRequest) error
	FindByID(ctx context.Context, id uint) (*RoleRequest, error)
	List(ctx context.Context, status Status) ([]RoleRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]RoleRequest, error)
	DeletePending(ctx context.Context, userID uint) error
	// Approve marks the request approved and applies userFields to its user
	// in one transaction.
	Approve(ctx context.Context, id, adminID uint, at time.Time, userFields map[string]interface{}) error
	Reject(ctx context.Context, id, adminID uint, at time.Time, reason string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, rr *RoleRequest) error {
	return r.db.WithContext(ctx).Omit("User").Create(rr).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*RoleRequest, error) {
	var rr RoleRequest
	if err := r.db.WithContext(ctx).Preload("User").First(&rr, id).Error; err != nil {
		return nil, err
	}
	return &rr, nil
}

func (r *repository) List(ctx context.Context, status Status) ([]RoleRequest, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []RoleRequest
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]RoleRequest, error) {
	var items []RoleRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *repository) DeletePending(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, StatusPending).
		Delete(&RoleRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Approve(ctx context.Context, id, adminID uint, at time.Time, userFields map[string]interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userID uint
		if err := tx.Model(&RoleRequest{}).Select("user_id").Where("id = ?", id).Scan(&userID).Error; err != nil {
			return err
		}
		if err := settle(tx, id, map[string]interface{}{
			"status":       StatusApproved,
			"processed_by": adminID,
			"processed_at": at,
		}); err != nil {
			return err
		}
		return tx.Model(&auth.User{}).Where("id = ?", userID).Updates(userFields).Error
	})
}

func (r *repository) Reject(ctx context.Context, id, adminID uint, at time.Time, reason string) error {
	return settle(r.db.WithContext(ctx), id, map[string]interface{}{
		"status":           StatusRejected,
		"rejection_reason": reason,
		"processed_by":     adminID,
		"processed_at":     at,
	})
}

// settle moves a pending request to its final state. A request that is no
// longer pending yields ErrAlreadyProcessed.
func settle(db *gorm.DB, id uint, fields map[string]interface{}) error {
	res := db.Model(&RoleRequest{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
