// Package token produces opaque refresh tokens for sessions.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewRefreshToken returns a 64-character hex token from 32 bytes of
// crypto/rand. The raw value is stored on the session row and never
// exposed through the safe session view.
func NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
