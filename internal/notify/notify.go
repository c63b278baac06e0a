// Package notify provides the delivery channels for reminder
// notifications: the backend's in-app store, the desktop via D-Bus,
// and optionally Telegram. Every channel is best-effort; a failing
// sink never blocks the others.
package notify

import "context"

// Message is a channel-agnostic notification.
type Message struct {
	Title string
	Body  string
	Type  string // task|meeting|appointment|system|reminder
	Link  string
}

// Sink delivers a message over one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
