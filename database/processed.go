package database

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"
)

// MarkProcessed records that a platform event has been handled. It returns
// true the first time an event is seen and false afterwards, so a restart or
// an overlapping poll does not handle the same event twice.
func (s *Store) MarkProcessed(ctx context.Context, kind string, eventID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO automod_processed (kind, event_id, processed_at) VALUES (?, ?, ?)`,
		kind, eventID, time.Now().Unix())
	if err != nil {
		return false, storageErr("mark processed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("mark processed", err)
	}
	return n == 1, nil
}

// CleanupProcessed deletes processed-event records older than maxAge.
func (s *Store) CleanupProcessed(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	res, err := s.db.ExecContext(ctx, `DELETE FROM automod_processed WHERE processed_at < ?`, cutoff)
	if err != nil {
		return 0, storageErr("cleanup processed", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("cleanup processed", err)
	}

	log.Printf("Cleaned up %d processed event records older than %s", rowsAffected, maxAge)
	return rowsAffected, nil
}

// HighWater returns the largest event id of kind that was handled, or 0.
// Feed items at or below it are never dispatched again, even after their
// processed records are cleaned up.
func (s *Store) HighWater(ctx context.Context, kind string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT event_id FROM automod_high_water WHERE kind = ?`, kind).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr("get high water", err)
	}
	return id, nil
}

// AdvanceHighWater raises the high-water mark of kind to eventID. A lower id
// leaves it unchanged.
func (s *Store) AdvanceHighWater(ctx context.Context, kind string, eventID int64) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO automod_high_water (kind, event_id) VALUES (?, ?)
        ON CONFLICT(kind) DO UPDATE SET event_id = MAX(event_id, excluded.event_id)`,
		kind, eventID)
	if err != nil {
		return storageErr("advance high water", err)
	}
	return nil
}
