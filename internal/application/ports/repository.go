package ports

import (
	"context"
	"time"

	"github.com/jbrucker/home-log/internal/domain"
)

// UserRepository defines persistence for users and their local password rows.
// Get* methods return (nil, nil) when no row matches.
type UserRepository interface {
	// Create persists the user and, when passwordHash is non-empty, its
	// credential row in the same transaction.
	Create(ctx context.Context, user *domain.User, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error)
	// GetPasswordHash returns "" when the user has no local credential.
	GetPasswordHash(ctx context.Context, userID domain.UserID) (string, error)
	SetPassword(ctx context.Context, userID domain.UserID, passwordHash string) error
}

// SourceRepository defines persistence for sources. Every read is scoped to
// the owning user; a source owned by someone else behaves as absent.
type SourceRepository interface {
	Create(ctx context.Context, source *domain.Source) error
	GetByID(ctx context.Context, ownerID domain.UserID, id domain.SourceID) (*domain.Source, error)
	List(ctx context.Context, ownerID domain.UserID, limit, offset int) ([]domain.SourceListItem, error)
	Update(ctx context.Context, source *domain.Source) error
	// Delete removes the source and, by schema cascade, its readings.
	// Returns false when the owner has no such source.
	Delete(ctx context.Context, ownerID domain.UserID, id domain.SourceID) (bool, error)
}

// ReadingRepository defines persistence for readings and their audit trail.
type ReadingRepository interface {
	Create(ctx context.Context, reading *domain.Reading) error
	GetByID(ctx context.Context, sourceID domain.SourceID, id domain.ReadingID) (*domain.Reading, error)
	List(ctx context.Context, sourceID domain.SourceID, since, until time.Time, limit, offset int) ([]*domain.Reading, error)
	// UpdateWithAudit applies the new reading values and appends the change
	// entry in one transaction. Neither is persisted if either fails.
	UpdateWithAudit(ctx context.Context, reading *domain.Reading, entry *domain.ChangeEntry) error
	ListChanges(ctx context.Context, sourceID domain.SourceID, limit, offset int) ([]*domain.ChangeEntry, error)
}
