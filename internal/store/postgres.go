package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"remindd/internal/models"
)

// Postgres is a Store backed by a PostgreSQL database, for deployments
// where reminder state must survive the machine the daemon runs on.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, uri string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.Pool.Close()
}

func (p *Postgres) NotificationRecords(ctx context.Context) (map[string]models.NotificationRecord, error) {
	rows, err := p.Pool.Query(ctx,
		`SELECT entity_id, record FROM notification_records`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]models.NotificationRecord)
	for rows.Next() {
		var (
			entityID string
			rec      models.NotificationRecord
		)
		if err := rows.Scan(&entityID, &rec); err != nil {
			return nil, err
		}
		records[entityID] = rec
	}
	return records, rows.Err()
}

func (p *Postgres) PutNotificationRecord(ctx context.Context, entityID string, rec models.NotificationRecord) error {
	_, err := p.Pool.Exec(ctx,
		`INSERT INTO notification_records (entity_id, record, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (entity_id) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		entityID, rec, time.Now(),
	)
	return err
}

func (p *Postgres) DeleteNotificationRecord(ctx context.Context, entityID string) error {
	_, err := p.Pool.Exec(ctx,
		`DELETE FROM notification_records WHERE entity_id = $1`,
		entityID,
	)
	return err
}

func (p *Postgres) EmailRecord(ctx context.Context, entityID string) (models.EmailRecord, error) {
	var rec models.EmailRecord
	err := p.Pool.QueryRow(ctx,
		`SELECT sent, attempted_at FROM email_records WHERE entity_id = $1`,
		entityID,
	).Scan(&rec.Sent, &rec.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EmailRecord{}, ErrNotFound
	}
	if err != nil {
		return models.EmailRecord{}, err
	}
	return rec, nil
}

func (p *Postgres) PutEmailRecord(ctx context.Context, entityID string, rec models.EmailRecord) error {
	_, err := p.Pool.Exec(ctx,
		`INSERT INTO email_records (entity_id, sent, attempted_at) VALUES ($1, $2, $3)
		 ON CONFLICT (entity_id) DO UPDATE SET sent = EXCLUDED.sent, attempted_at = EXCLUDED.attempted_at`,
		entityID, rec.Sent, rec.Timestamp,
	)
	return err
}

func (p *Postgres) DeleteEmailRecord(ctx context.Context, entityID string) error {
	_, err := p.Pool.Exec(ctx,
		`DELETE FROM email_records WHERE entity_id = $1`,
		entityID,
	)
	return err
}

func (p *Postgres) PruneEmailRecords(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := p.Pool.Exec(ctx,
		`DELETE FROM email_records WHERE attempted_at < $1`,
		cutoff.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) Preferences(ctx context.Context) (models.Preferences, error) {
	var prefs models.Preferences
	err := p.Pool.QueryRow(ctx,
		`SELECT prefs FROM notification_preferences WHERE id = 1`,
	).Scan(&prefs)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Preferences{}, ErrNotFound
	}
	if err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

func (p *Postgres) PutPreferences(ctx context.Context, prefs models.Preferences) error {
	_, err := p.Pool.Exec(ctx,
		`INSERT INTO notification_preferences (id, prefs, updated_at) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET prefs = EXCLUDED.prefs, updated_at = EXCLUDED.updated_at`,
		prefs, time.Now(),
	)
	return err
}

func (p *Postgres) ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	if _, err := p.Pool.Exec(ctx,
		`DELETE FROM idempotency_keys WHERE expires_at < $1`,
		now.Unix(),
	); err != nil {
		return false, err
	}

	tag, err := p.Pool.Exec(ctx,
		`INSERT INTO idempotency_keys (key, expires_at) VALUES ($1, $2)
		 ON CONFLICT (key) DO NOTHING`,
		key, now.Add(ttl).Unix(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
