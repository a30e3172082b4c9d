package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

const (
	insertReadingSQL = `INSERT INTO readings (id, source_id, recorded_by, recorded_at, metric_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	getReadingSQL = `SELECT id, source_id, recorded_by, recorded_at, metric_values, created_at
		FROM readings WHERE id = $1 AND source_id = $2`
	listReadingsSQL = `SELECT id, source_id, recorded_by, recorded_at, metric_values, created_at
		FROM readings
		WHERE source_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at
		LIMIT $4 OFFSET $5`
	updateReadingSQL = `UPDATE readings SET metric_values = $1, recorded_at = $2
		WHERE id = $3 AND source_id = $4`
	insertChangeSQL = `INSERT INTO change_log (id, reading_id, source_id, changed_by, changed_at, old_values, new_values)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	listChangesSQL = `SELECT id, reading_id, source_id, changed_by, changed_at, old_values, new_values
		FROM change_log WHERE source_id = $1
		ORDER BY changed_at DESC
		LIMIT $2 OFFSET $3`
)

// maxTime bounds open-ended time range queries.
var maxTime = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// ReadingRepository implements ports.ReadingRepository on pgx. Readings are
// always addressed through their source id, which the caller has already
// resolved under the owner's scope.
type ReadingRepository struct {
	pool *pgxpool.Pool
}

func NewReadingRepository(pool *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{pool: pool}
}

func (r *ReadingRepository) Create(ctx context.Context, reading *domain.Reading) error {
	values, err := json.Marshal(reading.Values)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertReadingSQL,
		reading.ID.UUID, reading.SourceID.UUID, reading.RecordedBy.UUID,
		reading.RecordedAt, values, reading.CreatedAt)
	return err
}

func (r *ReadingRepository) GetByID(ctx context.Context, sourceID domain.SourceID, id domain.ReadingID) (*domain.Reading, error) {
	row := r.pool.QueryRow(ctx, getReadingSQL, id.UUID, sourceID.UUID)
	reading, err := scanReading(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reading, nil
}

func (r *ReadingRepository) List(ctx context.Context, sourceID domain.SourceID, since, until time.Time, limit, offset int) ([]*domain.Reading, error) {
	if until.IsZero() {
		until = maxTime
	}
	rows, err := r.pool.Query(ctx, listReadingsSQL, sourceID.UUID, since, until, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	readings := make([]*domain.Reading, 0)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

// UpdateWithAudit applies the edit and appends the audit entry in one
// transaction so a reading edit without its change_log row cannot be
// observed, even across a crash between the two statements.
func (r *ReadingRepository) UpdateWithAudit(ctx context.Context, reading *domain.Reading, entry *domain.ChangeEntry) error {
	values, err := json.Marshal(reading.Values)
	if err != nil {
		return err
	}
	oldValues, err := json.Marshal(entry.OldValues)
	if err != nil {
		return err
	}
	newValues, err := json.Marshal(entry.NewValues)
	if err != nil {
		return err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	tag, err := tx.Exec(ctx, updateReadingSQL,
		values, reading.RecordedAt, reading.ID.UUID, reading.SourceID.UUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domerrors.ErrNotFound
	}
	if _, err := tx.Exec(ctx, insertChangeSQL,
		entry.ID, entry.ReadingID.UUID, entry.SourceID.UUID, entry.ChangedBy.UUID,
		entry.ChangedAt, oldValues, newValues); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ReadingRepository) ListChanges(ctx context.Context, sourceID domain.SourceID, limit, offset int) ([]*domain.ChangeEntry, error) {
	rows, err := r.pool.Query(ctx, listChangesSQL, sourceID.UUID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]*domain.ChangeEntry, 0)
	for rows.Next() {
		var e domain.ChangeEntry
		var oldValues, newValues []byte
		if err := rows.Scan(&e.ID, &e.ReadingID.UUID, &e.SourceID.UUID,
			&e.ChangedBy.UUID, &e.ChangedAt, &oldValues, &newValues); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(oldValues, &e.OldValues); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(newValues, &e.NewValues); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func scanReading(row pgx.Row) (*domain.Reading, error) {
	var reading domain.Reading
	var values []byte
	if err := row.Scan(&reading.ID.UUID, &reading.SourceID.UUID, &reading.RecordedBy.UUID,
		&reading.RecordedAt, &values, &reading.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(values, &reading.Values); err != nil {
		return nil, err
	}
	return &reading, nil
}

// Ensure ReadingRepository implements ports.ReadingRepository.
var _ ports.ReadingRepository = (*ReadingRepository)(nil)
