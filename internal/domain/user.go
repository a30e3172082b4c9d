package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a UserID from a uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// User is an account that can own sources and record readings.
// The password hash lives in a separate row (see ports.UserRepository);
// users authenticated by other means carry no local credential at all.
type User struct {
	ID        UserID
	Email     string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
