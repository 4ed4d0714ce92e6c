package operator

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Domain errors
var (
	ErrEmptyPIN    = errors.New("operator PIN cannot be empty")
	ErrPINTooShort = errors.New("operator PIN must be at least 4 digits")
	ErrWrongPIN    = errors.New("wrong operator PIN")
)

// Credentials guard the attended controls (cancel, clear, exit) so a
// guest cannot reset the booth mid-session.
type Credentials struct {
	PINHash string
}

// SetPIN hashes and stores a PIN using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 4 characters
// POST: PINHash is set to bcrypt hash
func (c *Credentials) SetPIN(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPIN
	}
	if len(plaintext) < 4 {
		return ErrPINTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	c.PINHash = string(hash)
	return nil
}

// CheckPIN verifies a plaintext PIN against the stored hash.
// PRE: PINHash is set
// INVARIANT: Credentials fields are not mutated
func (c *Credentials) CheckPIN(plaintext string) error {
	if c.PINHash == "" {
		return ErrWrongPIN
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PINHash), []byte(plaintext)); err != nil {
		return ErrWrongPIN
	}
	return nil
}
