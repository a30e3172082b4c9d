package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceID is a value object for source identity.
type SourceID struct{ uuid.UUID }

// NewSourceID creates a SourceID from a uuid.
func NewSourceID(id uuid.UUID) SourceID { return SourceID{UUID: id} }

// String returns the canonical string form.
func (s SourceID) String() string { return s.UUID.String() }

// Source is a named origin of measurements (a meter, a sensor) owned by
// exactly one user. Metrics maps metric name to its unit, e.g.
// {"energy": "kWh", "peak": "kW"}. Readings must use a subset of these names.
type Source struct {
	ID          SourceID
	OwnerID     UserID
	Name        string
	Type        string
	Description string
	Metrics     map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SourceListItem is the listing projection of a source with its reading count.
type SourceListItem struct {
	ID           SourceID
	Name         string
	Type         string
	ReadingCount int64
}
