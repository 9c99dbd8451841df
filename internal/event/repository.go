package event

import (
	"context"
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrAlreadyProcessed means the pending row was approved or rejected by someone else first.
	ErrAlreadyProcessed = errors.New("pending event already processed")
	// ErrTargetMissing means an edit proposal outlived the live event it targets.
	ErrTargetMissing = errors.New("target event no longer exists")
)

// Columns an approved edit never overwrites on the live row.
var protectedColumns = []string{"id", "attendees", "average_rating", "review_count", "created_at"}

type Repository interface {
	CreatePending(ctx context.Context, p *PendingEvent) error
	GetLive(ctx context.Context, id uint) (*Event, error)
	GetPending(ctx context.Context, id uint) (*PendingEvent, error)
	GetRejected(ctx context.Context, id uint) (*RejectedEvent, error)
	PendingForTarget(ctx context.Context, targetID uint) ([]PendingEvent, error)

	// ApproveNew moves a brand new proposal into the live store under the same id.
	ApproveNew(ctx context.Context, pendingID uint, e *Event) error
	// ApproveEdit overwrites the live row e.ID with e, minus the protected columns.
	ApproveEdit(ctx context.Context, pendingID uint, e *Event) error
	Reject(ctx context.Context, pendingID uint, r *RejectedEvent) error

	// DeleteLive removes a live event together with everything that references it.
	DeleteLive(ctx context.Context, id uint) error
	DeletePending(ctx context.Context, id uint) error
	DeleteRejected(ctx context.Context, id uint) error

	ListApproved(ctx context.Context, f Filter, page, limit int) ([]Event, int64, error)
	ListPending(ctx context.Context) ([]PendingEvent, error)
	ListRejected(ctx context.Context) ([]RejectedEvent, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]Record, error)
	ListByOrganizer(ctx context.Context, represents, organizationName string) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) CreatePending(ctx context.Context, p *PendingEvent) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) GetLive(ctx context.Context, id uint) (*Event, error) {
	var e Event
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) GetPending(ctx context.Context, id uint) (*PendingEvent, error) {
	var p PendingEvent
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetRejected(ctx context.Context, id uint) (*RejectedEvent, error) {
	var re RejectedEvent
	if err := r.db.WithContext(ctx).First(&re, id).Error; err != nil {
		return nil, err
	}
	return &re, nil
}

func (r *repository) PendingForTarget(ctx context.Context, targetID uint) ([]PendingEvent, error) {
	var items []PendingEvent
	err := r.db.WithContext(ctx).Where("target_event_id = ?", targetID).Find(&items).Error
	return items, err
}

// claimPending deletes the pending row first so a second moderator racing on the
// same proposal blocks on the row lock and then sees nothing left to process.
func claimPending(tx *gorm.DB, pendingID uint) error {
	res := tx.Delete(&PendingEvent{}, pendingID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrAlreadyProcessed
	}
	return nil
}

func (r *repository) ApproveNew(ctx context.Context, pendingID uint, e *Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimPending(tx, pendingID); err != nil {
			return err
		}
		return tx.Create(e).Error
	})
}

func (r *repository) ApproveEdit(ctx context.Context, pendingID uint, e *Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimPending(tx, pendingID); err != nil {
			return err
		}
		res := tx.Model(&Event{ID: e.ID}).Select("*").Omit(protectedColumns...).Updates(e)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTargetMissing
		}
		return nil
	})
}

func (r *repository) Reject(ctx context.Context, pendingID uint, re *RejectedEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := claimPending(tx, pendingID); err != nil {
			return err
		}
		return tx.Create(re).Error
	})
}

func (r *repository) DeleteLive(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"registrations", "favorites", "reviews"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE event_id = ?", id).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec("UPDATE notifications SET related_event_id = NULL WHERE related_event_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("target_event_id = ?", id).Delete(&PendingEvent{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *repository) DeletePending(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&PendingEvent{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteRejected(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&RejectedEvent{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListApproved(ctx context.Context, f Filter, page, limit int) ([]Event, int64, error) {
	q := r.db.WithContext(ctx).Model(&Event{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Faculty != "" {
		q = q.Where("faculty ILIKE ?", "%"+f.Faculty+"%")
	}
	if f.Department != "" {
		q = q.Where("department ILIKE ?", "%"+f.Department+"%")
	}
	if f.Location != "" {
		q = q.Where("location ILIKE ?", "%"+f.Location+"%")
	}
	if f.Organizer != "" {
		like := "%" + f.Organizer + "%"
		q = q.Where("organizer_represents ILIKE ? OR organizer_organization_name ILIKE ?", like, like)
	}
	if f.StartDate != nil {
		q = q.Where("date >= ?", calendarDay(*f.StartDate))
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", calendarDay(*f.EndDate))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Event
	err := q.Order("date DESC, time DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *repository) ListPending(ctx context.Context) ([]PendingEvent, error) {
	var items []PendingEvent
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&items).Error
	return items, err
}

func (r *repository) ListRejected(ctx context.Context) ([]RejectedEvent, error) {
	var items []RejectedEvent
	err := r.db.WithContext(ctx).Order("processed_at DESC, id DESC").Find(&items).Error
	return items, err
}

func (r *repository) ListByAuthor(ctx context.Context, authorID uint) ([]Record, error) {
	db := r.db.WithContext(ctx)

	var live []Event
	if err := db.Where("author_id = ?", authorID).Find(&live).Error; err != nil {
		return nil, err
	}
	var pending []PendingEvent
	if err := db.Where("author_id = ?", authorID).Find(&pending).Error; err != nil {
		return nil, err
	}
	var rejected []RejectedEvent
	if err := db.Where("author_id = ?", authorID).Find(&rejected).Error; err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(live)+len(pending)+len(rejected))
	for _, e := range live {
		out = append(out, e.Record())
	}
	for _, p := range pending {
		out = append(out, p.Record())
	}
	for _, re := range rejected {
		out = append(out, re.Record())
	}
	sortRecords(out)
	return out, nil
}

// sortRecords orders by event date, newest first; ties fall back to id.
func sortRecords(items []Record) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ID > items[j].ID
	})
}

func (r *repository) ListByOrganizer(ctx context.Context, represents, organizationName string) ([]Event, error) {
	represents, organizationName = strings.TrimSpace(represents), strings.TrimSpace(organizationName)
	if represents == "" && organizationName == "" {
		return []Event{}, nil
	}

	cond := r.db.Session(&gorm.Session{NewDB: true})
	switch {
	case represents != "" && organizationName != "":
		cond = cond.Where("LOWER(TRIM(organizer_represents)) = LOWER(?)", represents).
			Or("LOWER(TRIM(organizer_organization_name)) = LOWER(?)", organizationName)
	case represents != "":
		cond = cond.Where("LOWER(TRIM(organizer_represents)) = LOWER(?)", represents)
	default:
		cond = cond.Where("LOWER(TRIM(organizer_organization_name)) = LOWER(?)", organizationName)
	}

	var items []Event
	err := r.db.WithContext(ctx).Where(cond).Order("date DESC, id DESC").Find(&items).Error
	return items, err
}
