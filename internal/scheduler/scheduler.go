// Package scheduler is a persistent notifier.Scheduler that keeps pending
// notifications in the key-value store and hands them to a Deliverer when
// they fall due.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/care-alarms/internal/notifier"
	"github.com/example/care-alarms/internal/persistence"
)

const (
	entryPrefix   = "scheduled:"
	channelPrefix = "notifier:channel:"
	permissionKey = "notifier:permission"

	// MaxAttempts is how many failed deliveries a due notification survives.
	MaxAttempts = 3
)

type entry struct {
	Identifier string           `json:"identifier"`
	Content    notifier.Content `json:"content"`
	Trigger    notifier.Trigger `json:"trigger"`
	NextFire   time.Time        `json:"nextFire"`
	CreatedAt  time.Time        `json:"createdAt"`
	Attempts   int              `json:"attempts,omitempty"`
}

// Scheduler implements notifier.Scheduler on a persistence.Store.
type Scheduler struct {
	store     persistence.Store
	deliverer notifier.Deliverer
	now       func() time.Time
	location  *time.Location
	logger    *slog.Logger

	mu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the location wall-clock triggers are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler. A nil deliverer makes the environment report
// itself as incapable of delivering notifications.
func New(store persistence.Store, deliverer notifier.Deliverer, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		deliverer: deliverer,
		now:       time.Now,
		location:  time.Local,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "scheduler"))
	return s
}

// IsDevice implements notifier.Scheduler.
func (s *Scheduler) IsDevice(context.Context) bool {
	return s.deliverer != nil
}

// PermissionStatus implements notifier.Scheduler.
func (s *Scheduler) PermissionStatus(ctx context.Context) (notifier.PermissionStatus, error) {
	raw, err := s.store.Get(ctx, permissionKey)
	if errors.Is(err, persistence.ErrNotFound) {
		return notifier.PermissionUndetermined, nil
	}
	if err != nil {
		return "", fmt.Errorf("scheduler: read permission: %w", err)
	}
	switch status := notifier.PermissionStatus(raw); status {
	case notifier.PermissionGranted, notifier.PermissionDenied:
		return status, nil
	default:
		return notifier.PermissionUndetermined, nil
	}
}

// RequestPermission grants dispatch rights when the deliverer is ready.
func (s *Scheduler) RequestPermission(ctx context.Context, request notifier.PermissionRequest) (notifier.PermissionStatus, error) {
	status := notifier.PermissionGranted
	if s.deliverer == nil {
		status = notifier.PermissionDenied
	} else if err := s.deliverer.Ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "deliverer not ready", slog.Any("error", err))
		status = notifier.PermissionDenied
	}
	if err := s.store.Set(ctx, permissionKey, []byte(status)); err != nil {
		return "", fmt.Errorf("scheduler: store permission: %w", err)
	}
	s.logger.InfoContext(ctx, "permission requested",
		slog.String("status", string(status)),
		slog.Bool("alert", request.Alert),
		slog.Bool("sound", request.Sound))
	return status, nil
}

// ConfigureChannel implements notifier.Scheduler.
func (s *Scheduler) ConfigureChannel(ctx context.Context, channelID string, settings notifier.ChannelSettings) error {
	if strings.TrimSpace(channelID) == "" {
		return errors.New("scheduler: channel id is required")
	}
	if err := persistence.SetJSON(ctx, s.store, channelPrefix+channelID, settings); err != nil {
		return fmt.Errorf("scheduler: configure channel %s: %w", channelID, err)
	}
	return nil
}

// Schedule implements notifier.Scheduler. The identifier doubles as the
// returned reference, so rescheduling an identifier replaces the pending one.
func (s *Scheduler) Schedule(ctx context.Context, identifier string, content notifier.Content, trigger notifier.Trigger) (notifier.Reference, error) {
	if strings.TrimSpace(identifier) == "" {
		return "", errors.New("scheduler: identifier is required")
	}
	if err := trigger.Validate(); err != nil {
		return "", err
	}
	status, err := s.PermissionStatus(ctx)
	if err != nil {
		return "", err
	}
	if status != notifier.PermissionGranted {
		return "", notifier.ErrNotGranted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next, ok := trigger.Next(now, s.location)
	if !ok {
		return "", fmt.Errorf("%w: %s", notifier.ErrTriggerInPast, trigger)
	}
	item := entry{
		Identifier: identifier,
		Content:    content,
		Trigger:    trigger,
		NextFire:   next,
		CreatedAt:  now,
	}
	if err := persistence.SetJSON(ctx, s.store, entryPrefix+identifier, item); err != nil {
		return "", fmt.Errorf("scheduler: save %s: %w", identifier, err)
	}
	s.logger.DebugContext(ctx, "notification scheduled",
		slog.String("identifier", identifier),
		slog.String("trigger", trigger.String()),
		slog.Time("next_fire", next))
	return notifier.Reference(identifier), nil
}

// Cancel implements notifier.Scheduler. Cancelling an unknown reference is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, ref notifier.Reference) error {
	if ref == "" {
		return errors.New("scheduler: empty reference")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Remove(ctx, entryPrefix+string(ref)); err != nil {
		return fmt.Errorf("scheduler: cancel %s: %w", ref, err)
	}
	return nil
}

// ListScheduled implements notifier.Scheduler, ordered by next fire.
func (s *Scheduler) ListScheduled(ctx context.Context) ([]notifier.Scheduled, error) {
	s.mu.Lock()
	entries, err := s.loadEntries(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]notifier.Scheduled, 0, len(entries))
	for _, item := range entries {
		out = append(out, notifier.Scheduled{
			Identifier: item.Identifier,
			Reference:  notifier.Reference(item.Identifier),
			Content:    item.Content,
			Trigger:    item.Trigger,
			NextFire:   item.NextFire,
		})
	}
	return out, nil
}

// DispatchDue delivers every notification whose next fire is not after now.
// Repeating notifications move to their next occurrence after now, so fires
// missed while the process was down collapse into one delivery. One-shot
// notifications are removed once delivered or after MaxAttempts failures.
func (s *Scheduler) DispatchDue(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadEntries(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	channels := make(map[string]notifier.ChannelSettings)
	delivered := 0

	for _, item := range entries {
		if item.NextFire.After(now) {
			break
		}
		delivery := notifier.Delivery{
			Identifier: item.Identifier,
			Content:    item.Content,
			Channel:    s.channel(ctx, channels, item.Content.ChannelID),
			FiredAt:    now,
		}
		if s.deliverer == nil {
			err = errors.New("no deliverer configured")
		} else {
			err = s.deliverer.Deliver(ctx, delivery)
		}
		if err != nil {
			item.Attempts++
			s.logger.ErrorContext(ctx, "delivery failed",
				slog.String("identifier", item.Identifier),
				slog.Int("attempt", item.Attempts),
				slog.Any("error", err))
			if item.Attempts >= MaxAttempts {
				s.advance(ctx, item, now)
			} else if saveErr := persistence.SetJSON(ctx, s.store, entryPrefix+item.Identifier, item); saveErr != nil {
				s.logger.ErrorContext(ctx, "save retry state", slog.Any("error", saveErr))
			}
			continue
		}
		delivered++
		s.advance(ctx, item, now)
	}
	return delivered, nil
}

// Run dispatches due notifications every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: invalid dispatch interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "dispatch loop started", slog.Duration("interval", interval))
	for {
		if count, err := s.DispatchDue(ctx); err != nil {
			s.logger.ErrorContext(ctx, "dispatch failed", slog.Any("error", err))
		} else if count > 0 {
			s.logger.InfoContext(ctx, "notifications delivered", slog.Int("count", count))
		}

		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "dispatch loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// advance reschedules a repeating entry after now or drops a one-shot one.
func (s *Scheduler) advance(ctx context.Context, item entry, now time.Time) {
	key := entryPrefix + item.Identifier
	if item.Trigger.Repeats {
		if next, ok := item.Trigger.Next(now, s.location); ok {
			item.NextFire = next
			item.Attempts = 0
			if err := persistence.SetJSON(ctx, s.store, key, item); err != nil {
				s.logger.ErrorContext(ctx, "advance notification", slog.String("identifier", item.Identifier), slog.Any("error", err))
			}
			return
		}
	}
	if err := s.store.Remove(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "remove notification", slog.String("identifier", item.Identifier), slog.Any("error", err))
	}
}

func (s *Scheduler) channel(ctx context.Context, cache map[string]notifier.ChannelSettings, id string) notifier.ChannelSettings {
	if id == "" {
		return notifier.ChannelSettings{}
	}
	if settings, ok := cache[id]; ok {
		return settings
	}
	var settings notifier.ChannelSettings
	if _, err := persistence.GetJSON(ctx, s.store, channelPrefix+id, &settings); err != nil {
		s.logger.WarnContext(ctx, "load channel", slog.String("channel", id), slog.Any("error", err))
	}
	cache[id] = settings
	return settings
}

func (s *Scheduler) loadEntries(ctx context.Context) ([]entry, error) {
	keys, err := s.store.Keys(ctx, entryPrefix)
	if err != nil {
		return nil, fmt.Errorf("scheduler: list: %w", err)
	}
	entries := make([]entry, 0, len(keys))
	for _, key := range keys {
		var item entry
		found, err := persistence.GetJSON(ctx, s.store, key, &item)
		if err != nil {
			s.logger.WarnContext(ctx, "skip unreadable notification", slog.String("key", key), slog.Any("error", err))
			continue
		}
		if found {
			item.NextFire = item.NextFire.In(s.location)
			entries = append(entries, item)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].NextFire.Before(entries[j].NextFire)
	})
	return entries, nil
}
