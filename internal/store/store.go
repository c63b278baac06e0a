// Package store provides the persisted state owned by the reminder
// service: the per-entity notification ledger, the email-sent ledger,
// resolved preferences, and short-lived idempotency keys. No other part
// of the system reads or writes this state.
package store

import (
	"context"
	"errors"
	"time"

	"remindd/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence interface for reminder state. Implementations
// must be safe for use from a single goroutine; the service serializes
// access.
type Store interface {
	// NotificationRecords loads the full notification ledger.
	NotificationRecords(ctx context.Context) (map[string]models.NotificationRecord, error)
	PutNotificationRecord(ctx context.Context, entityID string, rec models.NotificationRecord) error
	DeleteNotificationRecord(ctx context.Context, entityID string) error

	// EmailRecord returns ErrNotFound if no attempt was recorded.
	EmailRecord(ctx context.Context, entityID string) (models.EmailRecord, error)
	PutEmailRecord(ctx context.Context, entityID string, rec models.EmailRecord) error
	DeleteEmailRecord(ctx context.Context, entityID string) error
	// PruneEmailRecords deletes email records older than the cutoff and
	// returns how many were removed.
	PruneEmailRecords(ctx context.Context, cutoff time.Time) (int, error)

	// Preferences returns ErrNotFound when none were stored yet.
	Preferences(ctx context.Context) (models.Preferences, error)
	PutPreferences(ctx context.Context, prefs models.Preferences) error

	// ClaimKey records an idempotency key with a TTL. It returns true if
	// the key was newly claimed, false if a live claim already exists.
	ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
