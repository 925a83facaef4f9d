package auth

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost of 8 keeps login fast on small hosts
const bcryptCost = 8

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"

	TenantPasswordLength = 8
	TenantCodeLength     = 6
	MinPasswordLength    = 8
)

// HashPassword generates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if the provided password matches the hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

// GenerateTenantPassword returns an 8 character password holding at least
// one lowercase letter, uppercase letter, digit and special character.
func GenerateTenantPassword() (string, error) {
	all := lowerChars + upperChars + digitChars + specialChars
	pw := make([]byte, 0, TenantPasswordLength)
	for _, set := range []string{lowerChars, upperChars, digitChars, specialChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		pw = append(pw, c)
	}
	for len(pw) < TenantPasswordLength {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		pw = append(pw, c)
	}

	// Fisher-Yates
	for i := len(pw) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return "", err
		}
		pw[i], pw[j] = pw[j], pw[i]
	}
	return string(pw), nil
}

// GenerateTenantCode returns a random 6 digit tenant id. Leading zeros are allowed.
func GenerateTenantCode() (string, error) {
	code := make([]byte, TenantCodeLength)
	for i := range code {
		c, err := randomChar(digitChars)
		if err != nil {
			return "", err
		}
		code[i] = c
	}
	return string(code), nil
}
