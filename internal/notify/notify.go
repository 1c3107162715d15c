// Package notify shows desktop notifications through the freedesktop
// notification service.
package notify

import "errors"

// ErrUnavailable is returned by New when no notification service can be
// reached.
var ErrUnavailable = errors.New("notification service unavailable")

// Urgency is the freedesktop urgency level.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification is one popup. Zero fields are left to the server.
type Notification struct {
	Title string
	Body  string
	// Icon is a themed icon name; ImagePath a local image shown instead.
	Icon      string
	ImagePath string
	Category  string
	// Timeout in ms; -1 lets the server decide, 0 never expires.
	Timeout    int32
	ReplacesID uint32
	Urgency    Urgency
	// Transient notifications skip the server's history.
	Transient bool
}

// Notifier delivers notifications.
type Notifier interface {
	// Notify shows n and returns the id the server assigned to it.
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

const appName = "wavelane"
