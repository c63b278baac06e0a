package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"remindd/internal/models"
	"remindd/internal/notify"
	"remindd/internal/rrule"
)

var kindLabels = map[models.Kind]string{
	models.KindTask:        "Task",
	models.KindMeeting:     "Meeting",
	models.KindAppointment: "Appointment",
}

// Dispatcher fans a firing event out to the configured channels. The
// in-app store is the baseline channel; desktop (with sound cue) and
// Telegram are layered on top of it according to the resolved
// preferences. Quiet hours silence the intrusive channels but not the
// in-app store.
type Dispatcher struct {
	inApp    notify.Sink
	desktop  notify.Sink
	telegram notify.Sink
	sound    *notify.Sound
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. desktop, telegram and sound may
// be nil when the channel is unavailable or unconfigured.
func NewDispatcher(inApp, desktop, telegram notify.Sink, sound *notify.Sound) *Dispatcher {
	return &Dispatcher{
		inApp:    inApp,
		desktop:  desktop,
		telegram: telegram,
		sound:    sound,
		now:      time.Now,
	}
}

// Dispatch delivers the reminder over every active channel. Channel
// failures are logged and isolated from each other.
func (d *Dispatcher) Dispatch(ctx context.Context, msg notify.Message, prefs models.Preferences) {
	now := d.now()

	if d.inApp != nil {
		if err := d.inApp.Send(ctx, msg); err != nil {
			log.Printf("Failed to send in-app notification %q: %v", msg.Title, err)
		}
	}

	if prefs.IsQuietHours(now) {
		return
	}

	if prefs.DesktopNotifications && d.desktop != nil {
		if err := d.desktop.Send(ctx, msg); err != nil {
			log.Printf("Failed to send desktop notification %q: %v", msg.Title, err)
		} else {
			d.sound.Play(ctx)
		}
	}

	if d.telegram != nil {
		if err := d.telegram.Send(ctx, msg); err != nil {
			log.Printf("Failed to send telegram notification %q: %v", msg.Title, err)
		}
	}
}

// BuildMessage constructs the human-readable notification for an
// entity's firing event.
func BuildMessage(e *models.Entity, now time.Time) notify.Message {
	due := e.Due()

	body := fmt.Sprintf("%q is due in %s (%s)", e.Title, formatTimeLeft(due.Sub(now)), due.Format("15:04"))
	if e.Kind == models.KindMeeting {
		body = fmt.Sprintf("%q starts in %s (%s)", e.Title, formatTimeLeft(due.Sub(now)), due.Format("15:04"))
	}

	if e.Description != "" {
		body += "\n" + e.Description
	}
	if e.IsRecurring {
		body += "\n" + rrule.HumanReadable(e.RecurrencePattern, e.RecurrenceInterval)
		if next := nextOccurrence(e, now); next != nil {
			body += ", next on " + next.Format("Jan 2 15:04")
		}
	}

	switch e.Kind {
	case models.KindMeeting:
		if e.Location != "" {
			body += "\nLocation: " + e.Location
		}
		if e.MeetingLink != "" {
			body += "\nLink: " + e.MeetingLink
		}
	case models.KindAppointment:
		if e.Location != "" {
			body += "\nLocation: " + e.Location
		}
		if e.Contact != "" {
			body += "\nContact: " + e.Contact
		}
	}

	return notify.Message{
		Title: kindLabels[e.Kind] + " reminder",
		Body:  body,
		Type:  string(e.Kind),
		Link:  e.MeetingLink,
	}
}

// nextOccurrence resolves the occurrence after the firing one for a
// recurring entity, or nil when the series has ended or the recurrence
// metadata is unusable.
func nextOccurrence(e *models.Entity, now time.Time) *time.Time {
	var until *time.Time
	if e.RecurrenceEndDate != nil {
		u := time.Unix(*e.RecurrenceEndDate, 0)
		until = &u
	}

	after := now
	if due := e.Due(); due.After(after) {
		after = due
	}

	next, err := rrule.NextOccurrence(e.RecurrencePattern, e.RecurrenceInterval, e.Due(), until, after)
	if err != nil {
		log.Printf("Failed to resolve next occurrence for %s: %v", e.ID, err)
		return nil
	}
	return next
}

// formatTimeLeft renders a duration as minutes when under one hour,
// otherwise as hours and minutes.
func formatTimeLeft(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d %s", minutes, plural("minute", minutes))
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d %s", hours, plural("hour", hours))
	}
	return fmt.Sprintf("%d %s %d %s", hours, plural("hour", hours), mins, plural("minute", mins))
}

func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
