package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

const (
	insertUserSQL = `INSERT INTO users (id, email, username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	insertPasswordSQL = `INSERT INTO user_passwords (user_id, password_hash, updated_at)
		VALUES ($1, $2, NOW())`
	getUserByEmailSQL = `SELECT id, email, username, created_at, updated_at
		FROM users WHERE email = $1`
	getUserByIDSQL = `SELECT id, email, username, created_at, updated_at
		FROM users WHERE id = $1`
	getPasswordSQL = `SELECT password_hash FROM user_passwords WHERE user_id = $1`
	setPasswordSQL = `INSERT INTO user_passwords (user_id, password_hash, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = NOW()`
)

// UserRepository implements ports.UserRepository on pgx. The password hash
// lives in user_passwords, one row per locally-authenticated user.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User, passwordHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, insertUserSQL,
		user.ID.UUID, user.Email, user.Username, user.CreatedAt, user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domerrors.ErrEmailExists
		}
		return err
	}
	if passwordHash != "" {
		if _, err := tx.Exec(ctx, insertPasswordSQL, user.ID.UUID, passwordHash); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return r.getOne(ctx, getUserByIDSQL, userID.UUID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID.UUID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetPasswordHash(ctx context.Context, userID domain.UserID) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, getPasswordSQL, userID.UUID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return hash, nil
}

func (r *UserRepository) SetPassword(ctx context.Context, userID domain.UserID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, setPasswordSQL, userID.UUID, passwordHash)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Ensure UserRepository implements ports.UserRepository.
var _ ports.UserRepository = (*UserRepository)(nil)
