// Package logbook holds the use cases for sources, readings and the audit
// trail of reading edits. Read-only listings go straight from the handlers
// to the repositories; everything that mutates state lives here.
package logbook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jbrucker/home-log/internal/application/ports"
	"github.com/jbrucker/home-log/internal/domain"
)

type CreateSourceInput struct {
	OwnerID     domain.UserID
	Name        string
	Type        string
	Description string
	// Metrics maps metric name to unit, e.g. {"energy": "kWh"}.
	Metrics map[string]string
}

type CreateSource struct {
	sources ports.SourceRepository
}

func NewCreateSource(sources ports.SourceRepository) *CreateSource {
	return &CreateSource{sources: sources}
}

func (uc *CreateSource) Execute(ctx context.Context, input CreateSourceInput) (*domain.Source, error) {
	metrics := input.Metrics
	if len(metrics) == 0 {
		// A source always defines at least one metric; mirror the classic
		// single-register meter when the client names none.
		metrics = map[string]string{"value": ""}
	}
	now := time.Now()
	source := &domain.Source{
		ID:          domain.NewSourceID(uuid.New()),
		OwnerID:     input.OwnerID,
		Name:        input.Name,
		Type:        input.Type,
		Description: input.Description,
		Metrics:     metrics,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.sources.Create(ctx, source); err != nil {
		return nil, err
	}
	return source, nil
}
