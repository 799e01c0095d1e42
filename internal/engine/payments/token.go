package payments

import (
	"crypto/rand"
	"errors"
)

const (
	tokenChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength = 24
)

type TokenAvailabilityChecker interface {
	ExistsByPublicToken(token string) (bool, error)
}

// GeneratePublicToken produces an unguessable token for the public payment
// page, retrying on collision.
func GeneratePublicToken(checker TokenAvailabilityChecker) (string, error) {
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		token, err := randomToken(tokenLength)
		if err != nil {
			return "", err
		}

		exists, err := checker.ExistsByPublicToken(token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}
	}

	// If collisions persist, increase length and try once more
	token, err := randomToken(tokenLength + 8)
	if err != nil {
		return "", err
	}
	exists, err := checker.ExistsByPublicToken(token)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.New("failed to generate unique payment token")
	}

	return token, nil
}

func randomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = tokenChars[int(b[i])%len(tokenChars)]
	}
	return string(b), nil
}
