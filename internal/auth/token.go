// Package auth issues and verifies the bearer tokens that identify a user.
//
// A token is the user ID encrypted and signed with Fernet. The server only
// verifies tokens; they are issued by the operator CLI.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// ErrInvalidToken is returned for tokens that are malformed, signed with another key or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager issues and verifies user tokens.
type TokenManager struct {
	key *fernet.Key
	ttl time.Duration
}

// NewTokenManager creates a TokenManager from a base64 encoded 32 byte Fernet key.
//
// An empty secret generates a random key, so tokens only stay valid for the
// lifetime of the process. A ttl of zero or less disables expiry.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	var key *fernet.Key
	if secret == "" {
		key = new(fernet.Key)
		if err := key.Generate(); err != nil {
			return nil, fmt.Errorf("failed to generate token key: %w", err)
		}
	} else {
		var err error
		key, err = fernet.DecodeKey(secret)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_SECRET: %w", err)
		}
	}

	if ttl <= 0 {
		ttl = -1
	}
	return &TokenManager{key: key, ttl: ttl}, nil
}

// GenerateSecret returns a new random key suitable for AUTH_SECRET.
func GenerateSecret() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", err
	}
	return key.Encode(), nil
}

// Issue returns a token for userID.
func (m *TokenManager) Issue(userID string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(userID), m.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(tok), nil
}

// Verify returns the user ID carried by token.
func (m *TokenManager) Verify(token string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), m.ttl, []*fernet.Key{m.key})
	if len(msg) == 0 {
		return "", ErrInvalidToken
	}
	return string(msg), nil
}
