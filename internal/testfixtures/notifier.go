package testfixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/care-alarms/internal/notifier"
)

// ScheduleCall records one Schedule invocation on FakeNotifier.
type ScheduleCall struct {
	Identifier string
	Content    notifier.Content
	Trigger    notifier.Trigger
	Reference  notifier.Reference
	NextFire   time.Time
}

// FakeNotifier is an in-memory notifier.Scheduler. References are
// "ref:"+identifier so tests can tell them apart from identifiers. First
// fires are resolved with notifier.Trigger.Next against Clock.
type FakeNotifier struct {
	mu sync.Mutex

	Clock    *Clock
	Location *time.Location

	Device        bool
	Status        notifier.PermissionStatus
	RequestResult notifier.PermissionStatus
	StatusErr     error
	RequestErr    error
	ChannelErr    error
	ListErr       error
	// ScheduleErrs fails Schedule for the given identifiers.
	ScheduleErrs map[string]error
	// CancelErrs fails Cancel for the given references.
	CancelErrs map[notifier.Reference]error
	// Unlisted hides pending notifications from ListScheduled.
	Unlisted bool

	pending  map[notifier.Reference]notifier.Scheduled
	calls    []ScheduleCall
	cancels  []notifier.Reference
	requests []notifier.PermissionRequest
	channels map[string]notifier.ChannelSettings
}

// NewFakeNotifier returns a granted, device-capable fake.
func NewFakeNotifier(clock *Clock) *FakeNotifier {
	if clock == nil {
		clock = NewClock(time.Time{})
	}
	return &FakeNotifier{
		Clock:         clock,
		Location:      Location,
		Device:        true,
		Status:        notifier.PermissionGranted,
		RequestResult: notifier.PermissionGranted,
		ScheduleErrs:  make(map[string]error),
		CancelErrs:    make(map[notifier.Reference]error),
		pending:       make(map[notifier.Reference]notifier.Scheduled),
		channels:      make(map[string]notifier.ChannelSettings),
	}
}

// Reference returns the reference the fake assigns to identifier.
func Reference(identifier string) notifier.Reference {
	return notifier.Reference("ref:" + identifier)
}

// IsDevice implements notifier.Scheduler.
func (f *FakeNotifier) IsDevice(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Device
}

// PermissionStatus implements notifier.Scheduler.
func (f *FakeNotifier) PermissionStatus(context.Context) (notifier.PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StatusErr != nil {
		return "", f.StatusErr
	}
	return f.Status, nil
}

// RequestPermission implements notifier.Scheduler.
func (f *FakeNotifier) RequestPermission(_ context.Context, request notifier.PermissionRequest) (notifier.PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, request)
	if f.RequestErr != nil {
		return "", f.RequestErr
	}
	f.Status = f.RequestResult
	return f.Status, nil
}

// ConfigureChannel implements notifier.Scheduler.
func (f *FakeNotifier) ConfigureChannel(_ context.Context, channelID string, settings notifier.ChannelSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ChannelErr != nil {
		return f.ChannelErr
	}
	f.channels[channelID] = settings
	return nil
}

// Schedule implements notifier.Scheduler.
func (f *FakeNotifier) Schedule(_ context.Context, identifier string, content notifier.Content, trigger notifier.Trigger) (notifier.Reference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.ScheduleErrs[identifier]; err != nil {
		return "", err
	}
	if err := trigger.Validate(); err != nil {
		return "", err
	}
	next, ok := trigger.Next(f.Clock.Now(), f.Location)
	if !ok {
		return "", fmt.Errorf("%w: %s", notifier.ErrTriggerInPast, trigger)
	}
	ref := Reference(identifier)
	f.pending[ref] = notifier.Scheduled{
		Identifier: identifier,
		Reference:  ref,
		Content:    content,
		Trigger:    trigger,
		NextFire:   next,
	}
	f.calls = append(f.calls, ScheduleCall{
		Identifier: identifier,
		Content:    content,
		Trigger:    trigger,
		Reference:  ref,
		NextFire:   next,
	})
	return ref, nil
}

// Cancel implements notifier.Scheduler.
func (f *FakeNotifier) Cancel(_ context.Context, ref notifier.Reference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, ref)
	if err := f.CancelErrs[ref]; err != nil {
		return err
	}
	delete(f.pending, ref)
	return nil
}

// ListScheduled implements notifier.Scheduler.
func (f *FakeNotifier) ListScheduled(context.Context) ([]notifier.Scheduled, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if f.Unlisted {
		return nil, nil
	}
	return f.pendingLocked(), nil
}

// Calls returns every Schedule call in order.
func (f *FakeNotifier) Calls() []ScheduleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ScheduleCall(nil), f.calls...)
}

// Cancelled returns every reference passed to Cancel in order.
func (f *FakeNotifier) Cancelled() []notifier.Reference {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifier.Reference(nil), f.cancels...)
}

// Pending returns pending notifications sorted by identifier.
func (f *FakeNotifier) Pending() []notifier.Scheduled {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingLocked()
}

// PendingIdentifiers returns the sorted identifiers of pending notifications.
func (f *FakeNotifier) PendingIdentifiers() []string {
	pending := f.Pending()
	ids := make([]string, len(pending))
	for i, item := range pending {
		ids[i] = item.Identifier
	}
	return ids
}

// PermissionRequests returns every interactive permission request.
func (f *FakeNotifier) PermissionRequests() []notifier.PermissionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifier.PermissionRequest(nil), f.requests...)
}

// Channel returns the settings configured for channelID.
func (f *FakeNotifier) Channel(channelID string) (notifier.ChannelSettings, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	settings, ok := f.channels[channelID]
	return settings, ok
}

// ResetCalls clears recorded calls but keeps pending notifications.
func (f *FakeNotifier) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.cancels = nil
	f.requests = nil
}

func (f *FakeNotifier) pendingLocked() []notifier.Scheduled {
	out := make([]notifier.Scheduled, 0, len(f.pending))
	for _, item := range f.pending {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identifier < out[j].Identifier
	})
	return out
}
