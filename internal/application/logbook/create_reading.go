package logbook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

type CreateReadingInput struct {
	OwnerID  domain.UserID
	SourceID domain.SourceID
	// RecordedAt defaults to now when zero.
	RecordedAt time.Time
	Values     map[string]float64
}

type CreateReading struct {
	sources  ports.SourceRepository
	readings ports.ReadingRepository
}

func NewCreateReading(sources ports.SourceRepository, readings ports.ReadingRepository) *CreateReading {
	return &CreateReading{sources: sources, readings: readings}
}

// Execute logs one observation for a source owned by the caller. Value keys
// must be a subset of the source's metric names.
func (uc *CreateReading) Execute(ctx context.Context, input CreateReadingInput) (*domain.Reading, error) {
	source, err := uc.sources.GetByID(ctx, input.OwnerID, input.SourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, domerrors.ErrNotFound
	}
	if err := checkMetricNames(source, input.Values); err != nil {
		return nil, err
	}
	recordedAt := input.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	reading := &domain.Reading{
		ID:         domain.NewReadingID(uuid.New()),
		SourceID:   source.ID,
		RecordedBy: input.OwnerID,
		RecordedAt: recordedAt,
		Values:     input.Values,
		CreatedAt:  time.Now(),
	}
	if err := uc.readings.Create(ctx, reading); err != nil {
		return nil, err
	}
	return reading, nil
}

func checkMetricNames(source *domain.Source, values map[string]float64) error {
	if len(values) == 0 {
		return domerrors.ErrUnknownMetric
	}
	for name := range values {
		if _, ok := source.Metrics[name]; !ok {
			return domerrors.ErrUnknownMetric
		}
	}
	return nil
}
