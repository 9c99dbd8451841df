// Package reminder sends one-time reminders for upcoming events to users who
// registered for or favorited them.
package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/internal/notification"
	"github.com/sharath018/campus-events-backend/utils"
)

const (
	DefaultInterval  = 30 * time.Second
	DefaultLookahead = 24 * time.Hour
)

var errEventGone = errors.New("event no longer exists")

type EventLookup interface {
	GetLive(ctx context.Context, id uint) (*event.Event, error)
}

// Notifier is satisfied by *notification.Dispatcher.
type Notifier interface {
	SendReminder(ctx context.Context, userID, eventID uint, eventTitle string, kind notification.ReminderKind) (bool, error)
}

type Deps struct {
	Repo     Repository
	Events   EventLookup
	Notifier Notifier
	Log      zerolog.Logger
}

type Options struct {
	Interval  time.Duration
	Lookahead time.Duration
	Clock     utils.Clock
}

// Stats summarizes one sweep. Suppressed counts records marked sent without
// a new notification: duplicate favorites and users who opted out.
type Stats struct {
	Scanned    int `json:"scanned"`
	Notified   int `json:"notified"`
	Suppressed int `json:"suppressed"`
	Stale      int `json:"stale"`
	Failed     int `json:"failed"`
}

type Sweeper struct {
	deps   Deps
	opts   Options
	log    zerolog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(deps Deps, opts Options) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultLookahead
	}
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock()
	}
	return &Sweeper{
		deps: deps,
		opts: opts,
		log:  deps.Log.With().Str("component", "reminders").Logger(),
		done: make(chan struct{}),
	}
}

// Start runs a sweep immediately and then once per interval until Stop.
func (s *Sweeper) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.log.Info().
		Dur("interval", s.opts.Interval).
		Dur("lookahead", s.opts.Lookahead).
		Msg("⏰ reminder sweeper started")

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		for {
			s.RunOnce(cctx)
			select {
			case <-cctx.Done():
				s.log.Info().Msg("🛑 reminder sweeper stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the loop and waits for the current sweep to return.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

type sweep struct {
	*Sweeper
	now     time.Time
	horizon time.Time
	events  map[uint]*event.Event
	stats   Stats
}

// RunOnce processes every unsent reminder once. Errors on one record are
// logged and counted; the record stays unsent and is retried next run.
func (s *Sweeper) RunOnce(ctx context.Context) Stats {
	now := s.opts.Clock.Now()
	run := &sweep{Sweeper: s, now: now, horizon: now.Add(s.opts.Lookahead), events: map[uint]*event.Event{}}

	regs, err := s.deps.Repo.PendingRegistrations(ctx, run.horizon)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load pending registration reminders")
	}
	for _, c := range regs {
		if ctx.Err() != nil {
			return run.stats
		}
		run.registration(ctx, c)
	}

	favs, err := s.deps.Repo.PendingFavorites(ctx, run.horizon)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load pending favorite reminders")
	}
	for _, c := range favs {
		if ctx.Err() != nil {
			return run.stats
		}
		run.favorite(ctx, c)
	}

	if run.stats.Scanned > 0 {
		s.log.Info().
			Int("scanned", run.stats.Scanned).
			Int("notified", run.stats.Notified).
			Int("suppressed", run.stats.Suppressed).
			Int("stale", run.stats.Stale).
			Int("failed", run.stats.Failed).
			Msg("reminder sweep finished")
	}
	return run.stats
}

func (r *sweep) event(ctx context.Context, id uint) (*event.Event, error) {
	if ev, ok := r.events[id]; ok {
		if ev == nil {
			return nil, errEventGone
		}
		return ev, nil
	}
	ev, err := r.deps.Events.GetLive(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			r.events[id] = nil
			return nil, errEventGone
		}
		return nil, err
	}
	r.events[id] = ev
	return ev, nil
}

// due loads the candidate's event and reports whether a reminder should go
// out now. Stale candidates are marked and counted here.
func (r *sweep) due(ctx context.Context, c Candidate, mark func(context.Context, uint) error) (*event.Event, bool) {
	r.stats.Scanned++
	ev, err := r.event(ctx, c.EventID)
	if err != nil {
		r.fail(c, err)
		return nil, false
	}
	if !r.now.Before(ev.StartsAt) {
		if err := mark(ctx, c.ID); err != nil {
			r.fail(c, err)
			return nil, false
		}
		r.stats.Stale++
		return nil, false
	}
	if ev.StartsAt.After(r.horizon) {
		return nil, false
	}
	return ev, true
}

func (r *sweep) registration(ctx context.Context, c Candidate) {
	ev, ok := r.due(ctx, c, r.deps.Repo.MarkRegistrationSent)
	if !ok {
		return
	}
	r.send(ctx, c, ev, notification.ReminderRegistration, r.deps.Repo.MarkRegistrationSent)
}

func (r *sweep) favorite(ctx context.Context, c Candidate) {
	ev, ok := r.due(ctx, c, r.deps.Repo.MarkFavoriteSent)
	if !ok {
		return
	}
	registered, err := r.deps.Repo.HasRegistration(ctx, c.UserID, c.EventID)
	if err != nil {
		r.fail(c, err)
		return
	}
	if registered {
		if err := r.deps.Repo.MarkFavoriteSent(ctx, c.ID); err != nil {
			r.fail(c, err)
			return
		}
		r.stats.Suppressed++
		return
	}
	r.send(ctx, c, ev, notification.ReminderFavorite, r.deps.Repo.MarkFavoriteSent)
}

func (r *sweep) send(ctx context.Context, c Candidate, ev *event.Event, kind notification.ReminderKind, mark func(context.Context, uint) error) {
	created, err := r.deps.Notifier.SendReminder(ctx, c.UserID, ev.ID, ev.Title, kind)
	if err != nil {
		r.fail(c, err)
		return
	}
	if err := mark(ctx, c.ID); err != nil {
		// the notification exists; the next run would duplicate it
		r.fail(c, err)
		return
	}
	if created {
		r.stats.Notified++
	} else {
		r.stats.Suppressed++
	}
}

func (r *sweep) fail(c Candidate, err error) {
	r.stats.Failed++
	r.log.Warn().
		Err(err).
		Uint("record_id", c.ID).
		Uint("user_id", c.UserID).
		Uint("event_id", c.EventID).
		Msg("reminder skipped")
}
