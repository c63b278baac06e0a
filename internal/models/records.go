package models

// RecordVersion is the current schema version for notification records.
// Version 0 records predate per-time-point tracking and carry only a
// single notified flag; they are migrated when the ledger is loaded.
const RecordVersion = 2

// NotificationRecord tracks which time points have already fired for a
// single entity. Fired is keyed by TimePoint name.
type NotificationRecord struct {
	Version      int             `json:"version"`
	Fired        map[string]bool `json:"fired,omitempty"`
	LastNotified int64           `json:"last_notified"`
	Count        int             `json:"count"`
	Acknowledged bool            `json:"acknowledged,omitempty"`

	// Legacy version-0 field, kept so old ledgers still decode.
	Notified bool `json:"notified,omitempty"`
}

// Migrate upgrades a legacy record to the current schema. The per-offset
// flags start empty so the next qualifying time point fires once more,
// matching the behavior of the pre-versioned upgrade path.
func (r *NotificationRecord) Migrate() {
	if r.Version >= RecordVersion {
		return
	}
	if r.Fired == nil {
		r.Fired = make(map[string]bool)
	}
	r.Version = RecordVersion
	r.Notified = false
}

// EmailRecord tracks the last attempted email reminder for an entity.
// Timestamp is Unix seconds of the attempt, whether or not it succeeded.
type EmailRecord struct {
	Sent      bool  `json:"sent"`
	Timestamp int64 `json:"timestamp"`
}
