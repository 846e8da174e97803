// Package notifier defines the contract between the alarm orchestrators and
// whatever actually dispatches notifications: permission negotiation,
// delivery channels, and schedule/cancel/list of identified notifications.
package notifier

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotGranted is returned when scheduling without dispatch rights.
	ErrNotGranted = errors.New("notifier: permission not granted")
	// ErrInvalidTrigger is returned for malformed triggers.
	ErrInvalidTrigger = errors.New("notifier: invalid trigger")
	// ErrTriggerInPast is returned when a one-shot trigger would never fire.
	ErrTriggerInPast = errors.New("notifier: trigger is in the past")
)

// Reference identifies a scheduled notification. It is opaque to callers,
// which only store it and hand it back to Cancel.
type Reference string

// PermissionStatus is the dispatch-rights state.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// PermissionRequest lists the rights requested interactively.
type PermissionRequest struct {
	Alert         bool `json:"alert"`
	Badge         bool `json:"badge"`
	Sound         bool `json:"sound"`
	Announcements bool `json:"announcements"`
}

// Importance of a delivery channel.
type Importance string

const (
	ImportanceDefault Importance = "default"
	ImportanceHigh    Importance = "high"
	ImportanceMax     Importance = "max"
)

// ChannelSettings configures a delivery channel.
type ChannelSettings struct {
	Name                 string     `json:"name"`
	Importance           Importance `json:"importance"`
	VibrationPattern     []int      `json:"vibrationPattern,omitempty"`
	LightColor           string     `json:"lightColor,omitempty"`
	Sound                string     `json:"sound,omitempty"`
	ShowBadge            bool       `json:"showBadge"`
	BypassDoNotDisturb   bool       `json:"bypassDnd"`
	LockscreenVisibility string     `json:"lockscreenVisibility,omitempty"`
}

// Priority of a single notification.
type Priority string

const (
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
	PriorityMax     Priority = "max"
)

// Content is what the user sees plus a string payload for the app.
type Content struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	Priority  Priority          `json:"priority,omitempty"`
	ChannelID string            `json:"channelId,omitempty"`
	Sticky    bool              `json:"sticky,omitempty"`
}

// Scheduled describes a pending notification as reported by ListScheduled.
type Scheduled struct {
	Identifier string    `json:"identifier"`
	Reference  Reference `json:"reference"`
	Content    Content   `json:"content"`
	Trigger    Trigger   `json:"trigger"`
	NextFire   time.Time `json:"nextFire"`
}

// Scheduler dispatches identified notifications. Scheduling an identifier
// that is already pending replaces it.
type Scheduler interface {
	// IsDevice reports whether this environment can deliver notifications at all.
	IsDevice(ctx context.Context) bool
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context, request PermissionRequest) (PermissionStatus, error)
	// ConfigureChannel creates or overwrites a delivery channel.
	ConfigureChannel(ctx context.Context, channelID string, settings ChannelSettings) error
	Schedule(ctx context.Context, identifier string, content Content, trigger Trigger) (Reference, error)
	Cancel(ctx context.Context, ref Reference) error
	ListScheduled(ctx context.Context) ([]Scheduled, error)
}

// Delivery is a notification that is due now.
type Delivery struct {
	Identifier string
	Content    Content
	Channel    ChannelSettings
	FiredAt    time.Time
}

// Deliverer pushes due notifications to the user's device.
type Deliverer interface {
	// Ready reports whether deliveries can currently be made.
	Ready(ctx context.Context) error
	Deliver(ctx context.Context, delivery Delivery) error
}
