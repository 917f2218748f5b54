package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on signup and password update.
const MinPasswordLength = 6

var ErrPasswordMismatch = errors.New("password mismatch")

// dummyHashes are compared against when the account does not exist so that
// unknown emails cost the same as wrong passwords. One per bcrypt cost.
var dummyHashes sync.Map

func HashPassword(raw string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword returns ErrPasswordMismatch for any failed comparison.
func CheckPassword(hash, raw string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// BurnCompare performs a throwaway bcrypt comparison at the given cost.
func BurnCompare(raw string, cost int) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, ok := dummyHashes.Load(cost)
	if !ok {
		generated, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
		if err != nil {
			return
		}
		hash, _ = dummyHashes.LoadOrStore(cost, generated)
	}
	_ = bcrypt.CompareHashAndPassword(hash.([]byte), []byte(raw))
}
