package reminder

import (
	"context"
	"errors"
	"log"

	"remindd/internal/models"
	"remindd/internal/store"
)

// Resolver recomputes the channel preference flags on every settings
// sync: server-held flags ANDed with previously stored per-channel
// opt-outs, with the server-side global switch always winning. The
// merged view is written back to the store.
type Resolver struct {
	store store.Store
}

// NewResolver creates a resolver over the given store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// Resolve merges server settings with stored preferences. When settings
// is nil (backend unavailable) the stored preferences are returned
// as-is, defaulting to all channels enabled.
func (r *Resolver) Resolve(ctx context.Context, settings *models.UserSettings) models.Preferences {
	stored, err := r.store.Preferences(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Failed to load stored preferences: %v", err)
		}
		stored = models.DefaultPreferences()
	}

	if settings == nil {
		return stored
	}

	global := settings.NotificationsEnabled
	merged := stored
	merged.TaskReminders = global && stored.TaskReminders
	merged.MeetingReminders = global && stored.MeetingReminders
	merged.AppointmentReminders = global && stored.AppointmentReminders
	merged.DesktopNotifications = global && settings.ShowNotifications && stored.DesktopNotifications
	merged.EmailNotifications = global && settings.EmailNotificationsEnabled && stored.EmailNotifications
	if settings.Timezone != "" {
		merged.Timezone = settings.Timezone
	}

	if err := r.store.PutPreferences(ctx, merged); err != nil {
		log.Printf("Failed to persist merged preferences: %v", err)
	}
	return merged
}
