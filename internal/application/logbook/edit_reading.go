package logbook

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

type EditReadingInput struct {
	OwnerID   domain.UserID
	SourceID  domain.SourceID
	ReadingID domain.ReadingID
	// RecordedAt keeps the reading's current timestamp when zero.
	RecordedAt time.Time
	Values     map[string]float64
}

type EditReading struct {
	sources  ports.SourceRepository
	readings ports.ReadingRepository
}

func NewEditReading(sources ports.SourceRepository, readings ports.ReadingRepository) *EditReading {
	return &EditReading{sources: sources, readings: readings}
}

// Execute applies an explicit edit to a logged reading. The update and the
// audit entry commit in one transaction; an edit without its matching audit
// row can never be observed.
func (uc *EditReading) Execute(ctx context.Context, input EditReadingInput) (*domain.Reading, error) {
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
	reading, err := uc.readings.GetByID(ctx, source.ID, input.ReadingID)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, domerrors.ErrNotFound
	}
	entry := &domain.ChangeEntry{
		ID:        uuid.New(),
		ReadingID: reading.ID,
		SourceID:  source.ID,
		ChangedBy: input.OwnerID,
		ChangedAt: time.Now(),
		OldValues: reading.Values,
		NewValues: input.Values,
	}
	reading.Values = input.Values
	if !input.RecordedAt.IsZero() {
		reading.RecordedAt = input.RecordedAt
	}
	if err := uc.readings.UpdateWithAudit(ctx, reading, entry); err != nil {
		return nil, err
	}
	return reading, nil
}
