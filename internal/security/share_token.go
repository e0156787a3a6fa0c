package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// ShareTokenBytes is the entropy backing a share-link token. 24 bytes keeps
// guessing infeasible while the encoded form stays URL friendly.
const ShareTokenBytes = 24

// NewShareToken returns a fresh URL-safe capability token.
func NewShareToken() (string, error) {
	buf := make([]byte, ShareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
