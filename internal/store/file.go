package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"remindd/internal/models"
)

const (
	ledgerFile = "notification_records.json"
	emailFile  = "email_records.json"
	prefsFile  = "notification_preferences.json"
	keysFile   = "idempotency_keys.json"
)

// File is a Store backed by JSON files in a state directory, one file
// per logical key. Writes go through a temp-file rename so a crash never
// leaves a half-written ledger behind. Corrupt files are reset to empty
// defaults rather than failing the service.
type File struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFile creates the state directory if needed and returns a file store
// rooted there.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

// SetClock overrides the clock used for idempotency-key expiry. Test use
// only.
func (f *File) SetClock(now func() time.Time) {
	f.now = now
}

func (f *File) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		// Corrupt state is reset, not fatal.
		return ErrNotFound
	}
	return nil
}

func (f *File) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *File) loadLedger() map[string]models.NotificationRecord {
	records := make(map[string]models.NotificationRecord)
	if err := f.readJSON(ledgerFile, &records); err != nil {
		return make(map[string]models.NotificationRecord)
	}
	return records
}

func (f *File) NotificationRecords(ctx context.Context) (map[string]models.NotificationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLedger(), nil
}

func (f *File) PutNotificationRecord(ctx context.Context, entityID string, rec models.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := f.loadLedger()
	records[entityID] = rec
	return f.writeJSON(ledgerFile, records)
}

func (f *File) DeleteNotificationRecord(ctx context.Context, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := f.loadLedger()
	if _, ok := records[entityID]; !ok {
		return nil
	}
	delete(records, entityID)
	return f.writeJSON(ledgerFile, records)
}

func (f *File) loadEmails() map[string]models.EmailRecord {
	emails := make(map[string]models.EmailRecord)
	if err := f.readJSON(emailFile, &emails); err != nil {
		return make(map[string]models.EmailRecord)
	}
	return emails
}

func (f *File) EmailRecord(ctx context.Context, entityID string) (models.EmailRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.loadEmails()[entityID]
	if !ok {
		return models.EmailRecord{}, ErrNotFound
	}
	return rec, nil
}

func (f *File) PutEmailRecord(ctx context.Context, entityID string, rec models.EmailRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	emails := f.loadEmails()
	emails[entityID] = rec
	return f.writeJSON(emailFile, emails)
}

func (f *File) DeleteEmailRecord(ctx context.Context, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	emails := f.loadEmails()
	if _, ok := emails[entityID]; !ok {
		return nil
	}
	delete(emails, entityID)
	return f.writeJSON(emailFile, emails)
}

func (f *File) PruneEmailRecords(ctx context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	emails := f.loadEmails()
	var pruned int
	for id, rec := range emails {
		if time.Unix(rec.Timestamp, 0).Before(cutoff) {
			delete(emails, id)
			pruned++
		}
	}
	if pruned == 0 {
		return 0, nil
	}
	return pruned, f.writeJSON(emailFile, emails)
}

func (f *File) Preferences(ctx context.Context) (models.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var prefs models.Preferences
	if err := f.readJSON(prefsFile, &prefs); err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

func (f *File) PutPreferences(ctx context.Context, prefs models.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeJSON(prefsFile, prefs)
}

func (f *File) ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make(map[string]int64)
	if err := f.readJSON(keysFile, &keys); err != nil {
		keys = make(map[string]int64)
	}

	now := f.now()
	for k, expiry := range keys {
		if time.Unix(expiry, 0).Before(now) {
			delete(keys, k)
		}
	}

	if expiry, ok := keys[key]; ok && time.Unix(expiry, 0).After(now) {
		return false, nil
	}

	keys[key] = now.Add(ttl).Unix()
	if err := f.writeJSON(keysFile, keys); err != nil {
		return false, err
	}
	return true, nil
}
