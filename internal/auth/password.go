package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasscodeTooShort = errors.New("passcode must be at least 8 characters")
	ErrWrongPasscode    = errors.New("wrong passcode")
)

const (
	bcryptCost        = 12
	minPasscodeLength = 8
)

// HashPasscode hashes a passcode using bcrypt
func HashPasscode(passcode string) (string, error) {
	if len(passcode) < minPasscodeLength {
		return "", ErrPasscodeTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPasscode compares a passcode with its hash
func CheckPasscode(passcode, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode))
	return err == nil
}

// PasscodeGate guards session creation with the shared demo passcode. Only
// the bcrypt hash is kept in memory.
type PasscodeGate struct {
	hash string
}

// NewPasscodeGate hashes the plain passcode once at startup.
func NewPasscodeGate(passcode string) (*PasscodeGate, error) {
	hash, err := HashPasscode(passcode)
	if err != nil {
		return nil, err
	}
	return &PasscodeGate{hash: hash}, nil
}

// NewPasscodeGateFromHash uses a precomputed bcrypt hash.
func NewPasscodeGateFromHash(hash string) (*PasscodeGate, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &PasscodeGate{hash: hash}, nil
}

func (g *PasscodeGate) Verify(passcode string) error {
	if !CheckPasscode(passcode, g.hash) {
		return ErrWrongPasscode
	}
	return nil
}
