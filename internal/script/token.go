package script

import (
	"crypto/rand"
	"fmt"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// apiGenerateToken implements neopult.api.generate_token(len): a
// cryptographically random, URL-safe string of exactly n characters.
// crypto/rand is used directly rather than a UUID/nanoid library because
// neither produces an arbitrary-length URL-safe string on request; a
// uniform rejection-free draw from a 64-character alphabet via
// crypto/rand.Int keeps every character unbiased.
func (h *Host) apiGenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("script: generate_token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("script: generate_token: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out), nil
}
