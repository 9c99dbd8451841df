package notification

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]Notification, error)
	MarkAsRead(ctx context.Context, id, userID uint) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)

	// EventAudience lists users registered for and users who favorited eventID.
	EventAudience(ctx context.Context, eventID uint) (Audience, error)

	SaveDeviceToken(ctx context.Context, token *DeviceToken) error
	RemoveDeviceToken(ctx context.Context, userID uint, token string) error
	ActiveTokens(ctx context.Context, userID uint) ([]string, error)
	DeactivateTokens(ctx context.Context, tokens []string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uint, limit int) ([]Notification, error) {
	var items []Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// MarkAsRead only touches a row owned by userID; anything else is gorm.ErrRecordNotFound.
func (r *repository) MarkAsRead(ctx context.Context, id, userID uint) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
			return err
		}
		if n.IsRead {
			return nil
		}
		n.IsRead = true
		return tx.Model(&n).Update("is_read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repository) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *repository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *repository) EventAudience(ctx context.Context, eventID uint) (Audience, error) {
	var a Audience
	db := r.db.WithContext(ctx)
	if err := db.Table("registrations").
		Where("event_id = ?", eventID).
		Distinct().
		Order("user_id").
		Pluck("user_id", &a.Registered).Error; err != nil {
		return a, err
	}
	if err := db.Table("favorites").
		Where("event_id = ?", eventID).
		Distinct().
		Order("user_id").
		Pluck("user_id", &a.Favorited).Error; err != nil {
		return a, err
	}
	return a, nil
}

// SaveDeviceToken upserts by token so a device that changes hands moves to
// the new user.
func (r *repository) SaveDeviceToken(ctx context.Context, token *DeviceToken) error {
	token.IsActive = true
	token.LastUsedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_type", "device_name", "is_active", "last_used_at", "updated_at"}),
	}).Create(token).Error
}

func (r *repository) RemoveDeviceToken(ctx context.Context, userID uint, token string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&DeviceToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ActiveTokens(ctx context.Context, userID uint) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&DeviceToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("token", &tokens).Error
	return tokens, err
}

func (r *repository) DeactivateTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&DeviceToken{}).
		Where("token IN ?", tokens).
		Update("is_active", false).Error
}
