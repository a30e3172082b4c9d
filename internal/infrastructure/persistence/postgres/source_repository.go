package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbrucker/home-log/internal/application/ports"
	"github.com/jbrucker/home-log/internal/domain"
)

const (
	insertSourceSQL = `INSERT INTO sources (id, owner_id, name, source_type, description, metrics, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	getSourceSQL = `SELECT id, owner_id, name, source_type, description, metrics, created_at, updated_at
		FROM sources WHERE id = $1 AND owner_id = $2`
	listSourcesSQL = `SELECT s.id, s.name, s.source_type, COUNT(r.id)
		FROM sources s LEFT JOIN readings r ON r.source_id = s.id
		WHERE s.owner_id = $1
		GROUP BY s.id, s.name, s.source_type, s.created_at
		ORDER BY s.created_at
		LIMIT $2 OFFSET $3`
	updateSourceSQL = `UPDATE sources
		SET name = $1, source_type = $2, description = $3, metrics = $4, updated_at = $5
		WHERE id = $6 AND owner_id = $7`
	deleteSourceSQL = `DELETE FROM sources WHERE id = $1 AND owner_id = $2`
)

// SourceRepository implements ports.SourceRepository on pgx. Every statement
// filters on owner_id, so foreign sources behave as absent.
type SourceRepository struct {
	pool *pgxpool.Pool
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{pool: pool}
}

func (r *SourceRepository) Create(ctx context.Context, source *domain.Source) error {
	metrics, err := json.Marshal(source.Metrics)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertSourceSQL,
		source.ID.UUID, source.OwnerID.UUID, source.Name, source.Type,
		source.Description, metrics, source.CreatedAt, source.UpdatedAt)
	return err
}

func (r *SourceRepository) GetByID(ctx context.Context, ownerID domain.UserID, id domain.SourceID) (*domain.Source, error) {
	var s domain.Source
	var metrics []byte
	err := r.pool.QueryRow(ctx, getSourceSQL, id.UUID, ownerID.UUID).
		Scan(&s.ID.UUID, &s.OwnerID.UUID, &s.Name, &s.Type, &s.Description,
			&metrics, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(metrics, &s.Metrics); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SourceRepository) List(ctx context.Context, ownerID domain.UserID, limit, offset int) ([]domain.SourceListItem, error) {
	rows, err := r.pool.Query(ctx, listSourcesSQL, ownerID.UUID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]domain.SourceListItem, 0)
	for rows.Next() {
		var it domain.SourceListItem
		if err := rows.Scan(&it.ID.UUID, &it.Name, &it.Type, &it.ReadingCount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SourceRepository) Update(ctx context.Context, source *domain.Source) error {
	metrics, err := json.Marshal(source.Metrics)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, updateSourceSQL,
		source.Name, source.Type, source.Description, metrics,
		source.UpdatedAt, source.ID.UUID, source.OwnerID.UUID)
	return err
}

func (r *SourceRepository) Delete(ctx context.Context, ownerID domain.UserID, id domain.SourceID) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteSourceSQL, id.UUID, ownerID.UUID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Ensure SourceRepository implements ports.SourceRepository.
var _ ports.SourceRepository = (*SourceRepository)(nil)
