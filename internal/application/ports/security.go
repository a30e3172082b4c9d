package ports

// PasswordHasher hashes and verifies passwords (Argon2id).
// Hash output is self-describing: algorithm parameters and salt are embedded
// in the digest, so Verify needs no external state.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// TokenSigner signs and validates bearer tokens with a symmetric MAC.
// Validate reports a single uniform error for every failure mode so callers
// cannot distinguish tampered, expired and malformed tokens.
type TokenSigner interface {
	Issue(userID string) (token string, err error)
	Validate(token string) (userID string, err error)
}
