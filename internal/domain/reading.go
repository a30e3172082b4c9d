package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReadingID is a value object for reading identity.
type ReadingID struct{ uuid.UUID }

// NewReadingID creates a ReadingID from a uuid.
func NewReadingID(id uuid.UUID) ReadingID { return ReadingID{UUID: id} }

// String returns the canonical string form.
func (r ReadingID) String() string { return r.UUID.String() }

// Reading is one logged observation for a source at a point in time.
// Values maps metric name to the observed numeric value. A reading is
// immutable once logged except through an edit that appends a ChangeEntry
// in the same transaction.
type Reading struct {
	ID         ReadingID
	SourceID   SourceID
	RecordedBy UserID
	RecordedAt time.Time
	Values     map[string]float64
	CreatedAt  time.Time
}

// ChangeEntry is one append-only audit record for an edit to a reading.
// Entries are never updated or deleted and intentionally carry value
// snapshots so history survives deletion of the reading itself.
type ChangeEntry struct {
	ID        uuid.UUID
	ReadingID ReadingID
	SourceID  SourceID
	ChangedBy UserID
	ChangedAt time.Time
	OldValues map[string]float64
	NewValues map[string]float64
}
