package logbook

import (
	"context"
	"time"

	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

type UpdateSourceInput struct {
	OwnerID     domain.UserID
	SourceID    domain.SourceID
	Name        string
	Type        string
	Description string
	Metrics     map[string]string
}

type UpdateSource struct {
	sources ports.SourceRepository
}

func NewUpdateSource(sources ports.SourceRepository) *UpdateSource {
	return &UpdateSource{sources: sources}
}

// Execute renames or redefines a source owned by the caller. A source owned
// by someone else is indistinguishable from a missing one.
func (uc *UpdateSource) Execute(ctx context.Context, input UpdateSourceInput) (*domain.Source, error) {
	source, err := uc.sources.GetByID(ctx, input.OwnerID, input.SourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, domerrors.ErrNotFound
	}
	source.Name = input.Name
	source.Type = input.Type
	source.Description = input.Description
	if len(input.Metrics) > 0 {
		source.Metrics = input.Metrics
	}
	source.UpdatedAt = time.Now()
	if err := uc.sources.Update(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}

type DeleteSource struct {
	sources ports.SourceRepository
}

func NewDeleteSource(sources ports.SourceRepository) *DeleteSource {
	return &DeleteSource{sources: sources}
}

// Execute deletes a source and, via schema cascade, all of its readings.
// Audit entries are retained. Returns ErrNotFound for absent or foreign
// sources alike.
func (uc *DeleteSource) Execute(ctx context.Context, ownerID domain.UserID, sourceID domain.SourceID) error {
	deleted, err := uc.sources.Delete(ctx, ownerID, sourceID)
	if err != nil {
		return err
	}
	if !deleted {
		return domerrors.ErrNotFound
	}
	return nil
}
