package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const activityColumns = `id, source, external_id, subject, sender, raw_body, received_at, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(s rowScanner) (*Activity, error) {
	a := &Activity{}
	var subject, sender sql.NullString

	if err := s.Scan(
		&a.ID, &a.Source, &a.ExternalID, &subject, &sender,
		&a.RawBody, &a.ReceivedAt, &a.CreatedAt,
	); err != nil {
		return nil, err
	}

	a.Subject = StringPtr(subject)
	a.Sender = StringPtr(sender)
	return a, nil
}

// CreateActivity inserts a new activity
func (db *DB) CreateActivity(ctx context.Context, a *Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.ReceivedAt.IsZero() {
		a.ReceivedAt = time.Now()
	}
	a.CreatedAt = time.Now()

	_, err := db.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.Source, a.ExternalID, NullString(a.Subject), NullString(a.Sender),
		a.RawBody, a.ReceivedAt, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(ctx context.Context, id string) (*Activity, error) {
	a, err := scanActivity(db.QueryRowContext(ctx, `
		SELECT `+activityColumns+` FROM activities WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetActivityByExternalID retrieves an activity by its source ID. It returns
// nil without error when none exists.
func (db *DB) GetActivityByExternalID(ctx context.Context, source Source, externalID string) (*Activity, error) {
	a, err := scanActivity(db.QueryRowContext(ctx, `
		SELECT `+activityColumns+` FROM activities
		WHERE source = ? AND external_id = ?
	`, source, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActivities retrieves activities with optional filters, newest first
func (db *DB) ListActivities(ctx context.Context, opts ListOptions) ([]Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE 1=1`
	args := []any{}

	if opts.Source != nil {
		query += " AND source = ?"
		args = append(args, *opts.Source)
	}
	if opts.Since != nil {
		query += " AND received_at >= ?"
		args = append(args, *opts.Since)
	}
	if opts.Query != "" {
		query += " AND (LOWER(subject) LIKE LOWER(?) OR LOWER(sender) LIKE LOWER(?) OR LOWER(raw_body) LIKE LOWER(?))"
		pattern := "%" + opts.Query + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query += " ORDER BY received_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", opts.Offset)
		}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}

	return activities, rows.Err()
}

// CountActivities returns the number of stored activities, optionally for
// one source
func (db *DB) CountActivities(ctx context.Context, source *Source) (int, error) {
	query := "SELECT COUNT(*) FROM activities"
	args := []any{}
	if source != nil {
		query += " WHERE source = ?"
		args = append(args, *source)
	}

	var n int
	err := db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// DeleteActivity removes an activity
func (db *DB) DeleteActivity(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetSyncState retrieves the sync position of a source. A source that was
// never synced gets a zero state.
func (db *DB) GetSyncState(ctx context.Context, source Source) (*SyncState, error) {
	s := &SyncState{Source: source}
	var lastSync sql.NullTime

	err := db.QueryRowContext(ctx, `
		SELECT last_sync_at, activities_imported FROM sync_state WHERE source = ?
	`, source).Scan(&lastSync, &s.ActivitiesImported)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	s.LastSyncAt = TimePtr(lastSync)
	return s, nil
}

// UpdateSyncState stores the sync position of a source
func (db *DB) UpdateSyncState(ctx context.Context, s *SyncState) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (source, last_sync_at, activities_imported)
		VALUES (?, ?, ?)
		ON CONFLICT (source) DO UPDATE SET
			last_sync_at = excluded.last_sync_at,
			activities_imported = excluded.activities_imported
	`, s.Source, NullTime(s.LastSyncAt), s.ActivitiesImported)
	return err
}

// GetStats retrieves activity counts per source, with each source's sync
// position
func (db *DB) GetStats(ctx context.Context, since *time.Time) (*Stats, error) {
	query := "SELECT source, COUNT(*) FROM activities"
	args := []any{}
	if since != nil {
		query += " WHERE received_at >= ?"
		args = append(args, *since)
	}
	query += " GROUP BY source ORDER BY source"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for rows.Next() {
		var s SourceStats
		if err := rows.Scan(&s.Source, &s.Activities); err != nil {
			rows.Close()
			return nil, err
		}
		stats.TotalActivities += s.Activities
		stats.Sources = append(stats.Sources, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range stats.Sources {
		state, err := db.GetSyncState(ctx, stats.Sources[i].Source)
		if err != nil {
			return nil, err
		}
		stats.Sources[i].LastSyncAt = state.LastSyncAt
	}
	return stats, nil
}
