package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

// UserLookup loads recipients with their preferences. auth.Repository satisfies it.
type UserLookup interface {
	FindByIDs(ctx context.Context, ids []uint) ([]auth.User, error)
}

// Service is the user-facing read side used by the HTTP handler.
type Service interface {
	List(ctx context.Context, userID uint, limit int) ([]Notification, error)
	MarkAsRead(ctx context.Context, id, userID uint) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	RegisterDeviceToken(ctx context.Context, userID uint, token, deviceType, deviceName string) error
	RemoveDeviceToken(ctx context.Context, userID uint, token string) error
}

// Dispatcher persists notifications and fans them out. In-app records (and
// their push copies) follow the in-app switch of the user's preferences,
// emails follow the email switch.
type Dispatcher struct {
	repo      Repository
	users     UserLookup
	realtime  Realtime
	transport Transport
	clock     utils.Clock
	log       zerolog.Logger
}

// NewDispatcher wires the dispatcher. realtime and transport may be nil.
func NewDispatcher(repo Repository, users UserLookup, realtime Realtime, transport Transport, clock utils.Clock, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		users:     users,
		realtime:  realtime,
		transport: transport,
		clock:     clock,
		log:       log.With().Str("component", "notifications").Logger(),
	}
}

// CreateNotification stores one in-app record without consulting preferences.
func (d *Dispatcher) CreateNotification(ctx context.Context, in CreateInput) (*Notification, error) {
	if in.UserID == 0 {
		return nil, apperror.Validation("", "notification recipient is required")
	}
	if !in.Type.Valid() {
		return nil, apperror.Validation("", "unknown notification type")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, apperror.Validation("", "notification title and message are required")
	}

	now := d.clock.Now()
	n := &Notification{
		UserID:           in.UserID,
		Title:            in.Title,
		Message:          in.Message,
		Type:             in.Type,
		RelatedEventID:   in.RelatedEventID,
		RelatedRequestID: in.RelatedRequestID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return nil, apperror.Internal(err)
	}

	if d.realtime != nil {
		d.realtime.Publish(ctx, n)
		d.realtime.InvalidateUnread(ctx, n.UserID)
	}
	return n, nil
}

// NotifyUser delivers to a single user subject to their preferences. It
// reports whether an in-app record was created.
func (d *Dispatcher) NotifyUser(ctx context.Context, in CreateInput) (bool, error) {
	users, err := d.users.FindByIDs(ctx, []uint{in.UserID})
	if err != nil {
		return false, apperror.Internal(err)
	}
	if len(users) == 0 {
		return false, apperror.NotFound("User not found")
	}
	return d.deliver(ctx, users[0], in)
}

// ResolveAudience snapshots who is attached to an event. Deletion resolves it
// before the cascade removes registrations and favorites.
func (d *Dispatcher) ResolveAudience(ctx context.Context, eventID uint) (Audience, error) {
	a, err := d.repo.EventAudience(ctx, eventID)
	if err != nil {
		return Audience{}, apperror.Internal(err)
	}
	return a, nil
}

// NotifyEventUpdated tells registered users and, separately, users who only
// favorited the event that it changed. Returns the number of in-app records.
func (d *Dispatcher) NotifyEventUpdated(ctx context.Context, eventID uint, eventTitle string) (int, error) {
	audience, err := d.ResolveAudience(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return d.fanOut(ctx, audience, func(t Target) CreateInput {
		typ, title, msg := updatedText(t.Registered, eventTitle)
		return CreateInput{UserID: t.UserID, Title: title, Message: msg, Type: typ, RelatedEventID: &eventID}
	}), nil
}

// NotifyEventDeleted tells a previously resolved audience that the event is
// gone. The records carry no event reference since the event no longer exists.
func (d *Dispatcher) NotifyEventDeleted(ctx context.Context, audience Audience, eventTitle string) int {
	title, msg := deletedText(eventTitle)
	return d.fanOut(ctx, audience, func(t Target) CreateInput {
		return CreateInput{UserID: t.UserID, Title: title, Message: msg, Type: TypeEventDeleted}
	})
}

// SendReminder delivers a 24h reminder and reports whether an in-app record was created.
func (d *Dispatcher) SendReminder(ctx context.Context, userID, eventID uint, eventTitle string, kind ReminderKind) (bool, error) {
	title, msg := reminderText(kind, eventTitle)
	return d.NotifyUser(ctx, CreateInput{
		UserID:         userID,
		Title:          title,
		Message:        msg,
		Type:           kind.notificationType(),
		RelatedEventID: &eventID,
	})
}

func (d *Dispatcher) fanOut(ctx context.Context, audience Audience, build func(Target) CreateInput) int {
	targets := audience.Targets()
	if len(targets) == 0 {
		return 0
	}

	ids := make([]uint, len(targets))
	for i, t := range targets {
		ids[i] = t.UserID
	}
	users, err := d.users.FindByIDs(ctx, ids)
	if err != nil {
		d.log.Error().Err(err).Int("recipients", len(ids)).Msg("fan-out user lookup failed")
		return 0
	}
	byID := make(map[uint]auth.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	created := 0
	for _, t := range targets {
		u, ok := byID[t.UserID]
		if !ok {
			continue
		}
		in := build(t)
		sent, err := d.deliver(ctx, u, in)
		if err != nil {
			d.log.Warn().Err(err).Uint("user_id", u.ID).Str("type", string(in.Type)).Msg("fan-out delivery failed")
			continue
		}
		if sent {
			created++
		}
	}
	return created
}

func (d *Dispatcher) deliver(ctx context.Context, user auth.User, in CreateInput) (bool, error) {
	in.UserID = user.ID
	topic := in.Type.Topic()
	created := false

	if user.Preferences.InApp(topic) {
		n, err := d.CreateNotification(ctx, in)
		if err != nil {
			return false, err
		}
		created = true
		d.enqueue(ctx, Delivery{
			NotificationID: n.ID,
			UserID:         user.ID,
			Channel:        ChannelPush,
			Subject:        in.Title,
			Body:           in.Message,
			CreatedAt:      n.CreatedAt,
		})
	}

	if user.Preferences.Email(topic) && user.Email != "" {
		d.enqueue(ctx, Delivery{
			UserID:    user.ID,
			Channel:   ChannelEmail,
			To:        user.Email,
			Subject:   in.Title,
			Body:      in.Message,
			CreatedAt: d.clock.Now(),
		})
	}
	return created, nil
}

// enqueue never fails the caller; the in-app record is the source of truth.
func (d *Dispatcher) enqueue(ctx context.Context, del Delivery) {
	if d.transport == nil {
		return
	}
	if err := d.transport.Enqueue(ctx, del); err != nil {
		d.log.Warn().Err(err).
			Uint("user_id", del.UserID).
			Str("channel", string(del.Channel)).
			Msg("enqueue delivery failed")
	}
}

func (d *Dispatcher) List(ctx context.Context, userID uint, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	items, err := d.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return items, nil
}

func (d *Dispatcher) MarkAsRead(ctx context.Context, id, userID uint) (*Notification, error) {
	n, err := d.repo.MarkAsRead(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	d.invalidate(ctx, userID)
	return n, nil
}

func (d *Dispatcher) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	n, err := d.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	d.invalidate(ctx, userID)
	return n, nil
}

func (d *Dispatcher) Delete(ctx context.Context, id, userID uint) error {
	if err := d.repo.Delete(ctx, id, userID); err != nil {
		return notFoundOr(err)
	}
	d.invalidate(ctx, userID)
	return nil
}

func (d *Dispatcher) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if d.realtime != nil {
		if n, ok := d.realtime.CachedUnread(ctx, userID); ok {
			return n, nil
		}
	}
	n, err := d.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	if d.realtime != nil {
		d.realtime.CacheUnread(ctx, userID, n)
	}
	return n, nil
}

func (d *Dispatcher) RegisterDeviceToken(ctx context.Context, userID uint, token, deviceType, deviceName string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperror.Validation("", "device token is required")
	}
	err := d.repo.SaveDeviceToken(ctx, &DeviceToken{
		UserID:     userID,
		Token:      token,
		DeviceType: deviceType,
		DeviceName: deviceName,
	})
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (d *Dispatcher) RemoveDeviceToken(ctx context.Context, userID uint, token string) error {
	if err := d.repo.RemoveDeviceToken(ctx, userID, token); err != nil {
		return notFoundOr(err)
	}
	return nil
}

func (d *Dispatcher) invalidate(ctx context.Context, userID uint) {
	if d.realtime != nil {
		d.realtime.InvalidateUnread(ctx, userID)
	}
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Notification not found")
	}
	return apperror.Internal(err)
}
