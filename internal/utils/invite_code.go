package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateInviteCode generates an unguessable invitation code from 16
// random bytes, formatted as 8 dash-separated groups for readability:
// XXXX-XXXX-XXXX-XXXX-XXXX-XXXX-XXXX-XXXX.
func GenerateInviteCode() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := hex.EncodeToString(raw)
	groups := make([]string, 0, len(encoded)/4)
	for i := 0; i < len(encoded); i += 4 {
		groups = append(groups, encoded[i:i+4])
	}
	return strings.Join(groups, "-"), nil
}
