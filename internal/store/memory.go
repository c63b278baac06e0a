package store

import (
	"context"
	"sync"
	"time"

	"remindd/internal/models"
)

// Memory is an in-memory Store used in tests and as a last-resort
// fallback when no durable backend is configured.
type Memory struct {
	mu       sync.Mutex
	records  map[string]models.NotificationRecord
	emails   map[string]models.EmailRecord
	prefs    *models.Preferences
	keys     map[string]time.Time
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]models.NotificationRecord),
		emails:  make(map[string]models.EmailRecord),
		keys:    make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock overrides the clock used for idempotency-key expiry. Test use
// only.
func (m *Memory) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Memory) NotificationRecords(ctx context.Context) (map[string]models.NotificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.NotificationRecord, len(m.records))
	for id, rec := range m.records {
		out[id] = rec
	}
	return out, nil
}

func (m *Memory) PutNotificationRecord(ctx context.Context, entityID string, rec models.NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[entityID] = rec
	return nil
}

func (m *Memory) DeleteNotificationRecord(ctx context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, entityID)
	return nil
}

func (m *Memory) EmailRecord(ctx context.Context, entityID string) (models.EmailRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.emails[entityID]
	if !ok {
		return models.EmailRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) PutEmailRecord(ctx context.Context, entityID string, rec models.EmailRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails[entityID] = rec
	return nil
}

func (m *Memory) DeleteEmailRecord(ctx context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.emails, entityID)
	return nil
}

func (m *Memory) PruneEmailRecords(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pruned int
	for id, rec := range m.emails {
		if time.Unix(rec.Timestamp, 0).Before(cutoff) {
			delete(m.emails, id)
			pruned++
		}
	}
	return pruned, nil
}

func (m *Memory) Preferences(ctx context.Context) (models.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs == nil {
		return models.Preferences{}, ErrNotFound
	}
	return *m.prefs, nil
}

func (m *Memory) PutPreferences(ctx context.Context, prefs models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = &prefs
	return nil
}

func (m *Memory) ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if expiry, ok := m.keys[key]; ok && expiry.After(now) {
		return false, nil
	}
	m.keys[key] = now.Add(ttl)
	return true, nil
}
