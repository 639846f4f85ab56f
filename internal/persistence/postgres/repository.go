package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/devpulse/internal/domain"
	"example.com/devpulse/internal/observability"
)

// Repository provides Postgres-backed persistence for activity records and
// linked GitHub profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertIfAbsent inserts the record unless its (user, date, type) triple
// already exists. The uniqueness constraint makes the call safe to repeat;
// an existing row is left untouched.
func (r *Repository) UpsertIfAbsent(ctx context.Context, record domain.ActivityRecord) (bool, error) {
	const stmt = `INSERT INTO activities (activity_id, user_id, activity_date, activity_type, source, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id, activity_date, activity_type) DO NOTHING`

	tag, err := r.pool.Exec(ctx, stmt,
		record.ID,
		record.UserID,
		record.Date,
		record.Type,
		record.Source,
		record.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	created := tag.RowsAffected() == 1
	if created {
		observability.RecordActivityPersisted(record.CreatedAt)
	}
	return created, nil
}

// DistinctDates returns every date on which the user has at least one
// activity of any type.
func (r *Repository) DistinctDates(ctx context.Context, userID string) ([]time.Time, error) {
	const query = `SELECT DISTINCT activity_date FROM activities WHERE user_id=$1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, domain.Day(day))
	}
	return dates, rows.Err()
}

// ListByUser returns the user's records most recent date first with keyset
// pagination.
func (r *Repository) ListByUser(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.ActivityRecord, *domain.Cursor, error) {
	args := []interface{}{userID, limit}
	query := `SELECT activity_id, user_id, activity_date, activity_type, source, created_at
        FROM activities WHERE user_id=$1`

	if cursor != nil {
		query += ` AND (activity_date, activity_id) < ($3, $4)`
		args = append(args, cursor.Date, cursor.ID)
	}

	query += ` ORDER BY activity_date DESC, activity_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.ActivityRecord, 0, limit)
	for rows.Next() {
		var record domain.ActivityRecord
		if err := rows.Scan(&record.ID, &record.UserID, &record.Date, &record.Type, &record.Source, &record.CreatedAt); err != nil {
			return nil, nil, err
		}
		record.Date = domain.Day(record.Date)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{Date: last.Date, ID: last.ID}
	}
	return results, nextCursor, nil
}

// SaveProfile inserts or updates the linked GitHub profile.
func (r *Repository) SaveProfile(ctx context.Context, profile domain.GitHubProfile) error {
	const stmt = `INSERT INTO github_profiles (user_id, github_username, github_token, last_synced, auto_sync, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,now(),now())
        ON CONFLICT (user_id) DO UPDATE SET
            github_username=EXCLUDED.github_username,
            github_token=EXCLUDED.github_token,
            last_synced=EXCLUDED.last_synced,
            auto_sync=EXCLUDED.auto_sync,
            updated_at=now()`

	_, err := r.pool.Exec(ctx, stmt,
		profile.UserID,
		profile.Username,
		nullIfEmpty(profile.Token),
		profile.LastSynced,
		profile.AutoSync,
	)
	return err
}

// GetProfile returns the linked profile, or nil when the user has none.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*domain.GitHubProfile, error) {
	const query = `SELECT user_id, github_username, COALESCE(github_token, ''), last_synced, auto_sync, created_at, updated_at
        FROM github_profiles WHERE user_id=$1`

	row := r.pool.QueryRow(ctx, query, userID)
	var profile domain.GitHubProfile
	if err := row.Scan(&profile.UserID, &profile.Username, &profile.Token, &profile.LastSynced, &profile.AutoSync, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
