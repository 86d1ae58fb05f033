// Package receipts issues receipt records and renders their documents.
// Issuance is idempotent per donation; rendering is derived work that can
// happen asynchronously and be repeated at will.
package receipts

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const numberPrefix = "REC-"

// MintNumber produces a receipt number of the form REC- followed by eight
// uppercase hex characters. Uniqueness is enforced by the store; callers
// retry on collision.
func MintNumber() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("mint receipt number: %w", err)
	}
	return numberPrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
