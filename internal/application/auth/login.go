package auth

import (
	"context"

	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
)

type LoginInput struct {
	// Email is the login identifier. The HTTP layer maps the form field
	// "username" onto it, following the OAuth2 password flow convention.
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
	User        *domain.User
}

type Login struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	signer    ports.TokenSigner
	expirySec int64
}

func NewLogin(users ports.UserRepository, hasher ports.PasswordHasher, signer ports.TokenSigner, expirySec int64) *Login {
	return &Login{users: users, hasher: hasher, signer: signer, expirySec: expirySec}
}

// Execute authenticates the credentials and issues a bearer token.
// Unknown user, missing local credential and wrong password all collapse
// into ErrInvalidCredentials so the response reveals nothing.
func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := uc.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domerrors.ErrInvalidCredentials
	}
	hash, err := uc.users.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if hash == "" || !uc.hasher.Verify(input.Password, hash) {
		return nil, domerrors.ErrInvalidCredentials
	}
	token, err := uc.signer.Issue(user.ID.String())
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   uc.expirySec,
		User:        user,
	}, nil
}
