package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPINFormat = errors.New("PIN must be exactly 4 digits")

func ValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func HashPIN(pin string) (string, error) {
	if !ValidPIN(pin) {
		return "", ErrPINFormat
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPIN reports whether pin matches hash. An empty hash means no PIN is
// set and always matches.
func CheckPIN(hash, pin string) bool {
	if hash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
