package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	appName = "remindd"
)

// Desktop sends OS-level notifications over the D-Bus session bus.
type Desktop struct {
	bus *dbus.Conn
}

// NewDesktop connects to the session bus. On headless machines the bus
// is unavailable; callers should degrade to the remaining sinks.
func NewDesktop() (*Desktop, error) {
	bus, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to D-Bus session bus: %w", err)
	}
	return &Desktop{bus: bus}, nil
}

func (d *Desktop) Name() string { return "desktop" }

// Send posts the notification via org.freedesktop.Notifications.
func (d *Desktop) Send(ctx context.Context, msg Message) error {
	obj := d.bus.Object(notifyObj, notifyPath)
	if obj == nil {
		return fmt.Errorf("did not find object %s (%s) on session bus", notifyObj, notifyPath)
	}

	call := obj.CallWithContext(
		ctx,
		notifyMethod,
		0,
		appName,
		uint32(0),
		"",
		msg.Title,
		msg.Body,
		[]string{},
		map[string]dbus.Variant{},
		int32(-1),
	)
	if call.Err != nil {
		return fmt.Errorf("cannot send desktop notification %q: %w", msg.Title, call.Err)
	}
	return nil
}

// Close releases the bus connection.
func (d *Desktop) Close() error {
	return d.bus.Close()
}
