package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPasscode = errors.New("invalid passcode")
	ErrWeakPasscode    = errors.New("passcode must be at least 4 characters")
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// HashPasscode validates and bcrypt-hashes a household passcode.
func HashPasscode(passcode string) (string, error) {
	if len(passcode) < 4 {
		return "", ErrWeakPasscode
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passcode: %w", err)
	}
	return string(hashed), nil
}

// VerifyPasscode compares a raw passcode against its stored hash.
func VerifyPasscode(hash, passcode string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)); err != nil {
		return ErrInvalidPasscode
	}
	return nil
}

// GenerateHouseholdCode produces a random 6-character join code over A-Z and
// digits. Uniqueness is enforced by the storage layer's unique index.
func GenerateHouseholdCode() (string, error) {
	code := make([]byte, 6)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate household code: %w", err)
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code), nil
}
