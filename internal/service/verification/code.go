package verification

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const tokenBytes = 32

var codeSpace = big.NewInt(1_000_000)

// generateCode returns a uniformly random six digit code, zero padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// generateToken returns an unguessable URL-safe link identifier.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
