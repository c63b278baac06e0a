package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"remindd/internal/models"
	"remindd/internal/store"
)

// messageDedupWindow suppresses identical human-visible notifications
// produced by two near-simultaneous evaluation passes. It is independent
// of the per-offset ledger.
const messageDedupWindow = 10 * time.Second

// Ledger is the persisted per-entity record of which time points have
// already fired. ShouldNotify returns true exactly once per
// (entity, time point) pair until the entity's due instant changes.
type Ledger struct {
	store       store.Store
	records     map[string]models.NotificationRecord
	initialized bool
	recent      map[string]time.Time
}

// NewLedger creates a ledger over the given store. Load must be called
// before any evaluation; until then ShouldNotify refuses to fire so a
// not-yet-loaded ledger is never clobbered.
func NewLedger(st store.Store) *Ledger {
	return &Ledger{
		store:  st,
		recent: make(map[string]time.Time),
	}
}

// Load rehydrates the ledger from the store and migrates any legacy
// records to the current schema in one pass, before evaluation starts.
func (l *Ledger) Load(ctx context.Context) error {
	records, err := l.store.NotificationRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load notification ledger: %w", err)
	}

	for id, rec := range records {
		if rec.Version < models.RecordVersion {
			rec.Migrate()
			records[id] = rec
			if err := l.store.PutNotificationRecord(ctx, id, rec); err != nil {
				log.Printf("Failed to persist migrated record for %s: %v", id, err)
			}
		}
	}

	l.records = records
	l.initialized = true
	return nil
}

// ShouldNotify resolves the matching time point for the entity and
// reports whether it has not fired yet. A true return marks the point
// fired and writes the record through to the store.
func (l *Ledger) ShouldNotify(ctx context.Context, entityID string, now, due time.Time) (TimePoint, bool) {
	if !l.initialized {
		return 0, false
	}

	tp, ok := Match(now, due)
	if !ok {
		return 0, false
	}

	rec, exists := l.records[entityID]
	if !exists {
		rec = models.NotificationRecord{
			Version: models.RecordVersion,
			Fired:   make(map[string]bool),
		}
	}
	if rec.Fired == nil {
		rec.Fired = make(map[string]bool)
	}

	if rec.Fired[tp.String()] {
		return tp, false
	}

	rec.Fired[tp.String()] = true
	rec.Count++
	rec.LastNotified = now.Unix()
	l.records[entityID] = rec

	if err := l.store.PutNotificationRecord(ctx, entityID, rec); err != nil {
		log.Printf("Failed to persist notification record for %s: %v", entityID, err)
	}
	return tp, true
}

// Invalidate deletes the entity's record so the full reminder sequence
// can re-fire, used when the watched due instant changes.
func (l *Ledger) Invalidate(ctx context.Context, entityID string) {
	if _, ok := l.records[entityID]; !ok {
		return
	}
	delete(l.records, entityID)
	if err := l.store.DeleteNotificationRecord(ctx, entityID); err != nil {
		log.Printf("Failed to delete notification record for %s: %v", entityID, err)
	}
}

// SuppressDuplicate reports whether an identical notification was
// dispatched within the last ten seconds, and records this one if not.
func (l *Ledger) SuppressDuplicate(msgType, title, body string, now time.Time) bool {
	key := msgType + ":" + title + ":" + body

	for k, seen := range l.recent {
		if now.Sub(seen) > messageDedupWindow {
			delete(l.recent, k)
		}
	}

	if seen, ok := l.recent[key]; ok && now.Sub(seen) <= messageDedupWindow {
		return true
	}
	l.recent[key] = now
	return false
}
