package auth

import (
	"context"

	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

type ChangePassword struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
}

func NewChangePassword(users ports.UserRepository, hasher ports.PasswordHasher) *ChangePassword {
	return &ChangePassword{users: users, hasher: hasher}
}

// Execute sets a new local password for the user, creating the credential
// row if the account had none (e.g. was provisioned externally).
func (uc *ChangePassword) Execute(ctx context.Context, userID domain.UserID, newPassword string) error {
	if err := CheckPasswordStrength(newPassword); err != nil {
		return err
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domerrors.ErrNotFound
	}
	hash, err := uc.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return uc.users.SetPassword(ctx, userID, hash)
}
