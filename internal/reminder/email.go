package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"remindd/internal/api"
	"remindd/internal/models"
	"remindd/internal/store"
)

const (
	// emailCooldown guards against duplicate emails across unrelated
	// polling cycles after a successful send.
	emailCooldown = 23 * time.Hour
	// emailWindow is the tolerance around the single "about to fire"
	// threshold.
	emailWindow = 3 * time.Minute
	// attemptGuard rejects any further attempt within ten minutes of a
	// recorded attempt, sent or not.
	attemptGuard = 10 * time.Minute
	// claimTTL is how long the per-minute idempotency key lives.
	claimTTL = 5 * time.Minute

	taskEmailLead    = 24 * time.Hour
	meetingEmailLead = time.Hour
)

// EmailScheduler is the slice of the backend client the gate uses to
// request email sends.
type EmailScheduler interface {
	ScheduleTaskReminder(ctx context.Context, req api.TaskReminderRequest) error
	ScheduleMeetingReminder(ctx context.Context, req api.MeetingReminderRequest) error
	ScheduleAppointmentReminder(ctx context.Context, req api.AppointmentReminderRequest) error
}

// EmailGate decides whether to request a backend email send for one
// entity, independent of the in-app notification ledger. Failures are
// logged and never propagate; the polling loop continues for other
// entities.
type EmailGate struct {
	store   store.Store
	backend EmailScheduler
	now     func() time.Time
}

// NewEmailGate creates the gate over the given store and backend.
func NewEmailGate(st store.Store, backend EmailScheduler) *EmailGate {
	return &EmailGate{store: st, backend: backend, now: time.Now}
}

// emailLead returns the single email threshold for the entity kind:
// 24 hours before due for tasks and appointments, 1 hour before start
// for meetings.
func emailLead(kind models.Kind) time.Duration {
	if kind == models.KindMeeting {
		return meetingEmailLead
	}
	return taskEmailLead
}

// Send evaluates the gating chain and, if every gate passes, requests
// an email reminder from the backend. The email record is marked sent
// optimistically before the request and rolled back with a fresh
// timestamp on failure, so a legitimate retry is not suppressed by the
// long cooldown.
func (g *EmailGate) Send(ctx context.Context, e *models.Entity, profile *models.Profile, settings *models.UserSettings, prefs models.Preferences, recentlyEdited bool) {
	if settings == nil || !settings.EmailNotificationsEnabled || !settings.NotificationsEnabled || !prefs.EmailNotifications {
		return
	}

	if profile == nil || profile.UserID == "" || profile.Email == "" {
		log.Printf("Cannot request email reminder for %s %s: no user id or email", e.Kind, e.ID)
		return
	}

	now := g.now()

	rec, err := g.store.EmailRecord(ctx, e.ID)
	haveRecord := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("Failed to read email record for %s: %v", e.ID, err)
		return
	}

	if haveRecord && rec.Sent && now.Sub(time.Unix(rec.Timestamp, 0)) < emailCooldown {
		return
	}

	untilEvent := e.Due().Sub(now)
	lead := emailLead(e.Kind)
	diff := untilEvent - lead
	if diff < 0 {
		diff = -diff
	}
	inWindow := diff < emailWindow
	editBypass := recentlyEdited && untilEvent > 0 && untilEvent < lead
	if !inWindow && !editBypass {
		return
	}

	key := fmt.Sprintf("%s_%s_%d", e.Kind, e.ID, now.Unix()/60)
	claimed, err := g.store.ClaimKey(ctx, key, claimTTL)
	if err != nil {
		log.Printf("Failed to claim idempotency key %s: %v", key, err)
		return
	}
	if !claimed {
		return
	}

	if haveRecord && now.Sub(time.Unix(rec.Timestamp, 0)) < attemptGuard {
		return
	}

	// Mark sent before the request so a concurrent evaluation sees it
	// immediately.
	if err := g.store.PutEmailRecord(ctx, e.ID, models.EmailRecord{Sent: true, Timestamp: now.Unix()}); err != nil {
		log.Printf("Failed to record email attempt for %s: %v", e.ID, err)
		return
	}

	if err := g.request(ctx, e, profile); err != nil {
		log.Printf("Failed to schedule %s email reminder for %s: %v", e.Kind, e.ID, err)
		rollback := models.EmailRecord{Sent: false, Timestamp: g.now().Unix()}
		if err := g.store.PutEmailRecord(ctx, e.ID, rollback); err != nil {
			log.Printf("Failed to roll back email record for %s: %v", e.ID, err)
		}
		return
	}

	log.Printf("Requested %s email reminder for %q (%s)", e.Kind, e.Title, e.ID)
}

func (g *EmailGate) request(ctx context.Context, e *models.Entity, profile *models.Profile) error {
	switch e.Kind {
	case models.KindTask:
		return g.backend.ScheduleTaskReminder(ctx, api.TaskReminderRequest{
			Email:     profile.Email,
			TaskTitle: e.Title,
			TaskID:    e.ID,
			DueDate:   e.DueAt,
			UserID:    profile.UserID,
		})
	case models.KindMeeting:
		return g.backend.ScheduleMeetingReminder(ctx, api.MeetingReminderRequest{
			Email:        profile.Email,
			MeetingTitle: e.Title,
			MeetingID:    e.ID,
			StartTime:    e.DueAt,
			MeetingLink:  e.MeetingLink,
			UserID:       profile.UserID,
		})
	case models.KindAppointment:
		return g.backend.ScheduleAppointmentReminder(ctx, api.AppointmentReminderRequest{
			Email:            profile.Email,
			AppointmentTitle: e.Title,
			AppointmentID:    e.ID,
			Date:             e.DueAt,
			Location:         e.Location,
			UserID:           profile.UserID,
		})
	default:
		return fmt.Errorf("invalid entity kind %q", e.Kind)
	}
}
