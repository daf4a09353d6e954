package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRoomCode - generates a short uppercase alphanumeric room code.
func GenerateRoomCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid room code length %d", length)
	}

	alphabetLen := big.NewInt(int64(len(roomCodeAlphabet)))

	var builder strings.Builder
	builder.Grow(length)

	for range length {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}

		builder.WriteByte(roomCodeAlphabet[n.Int64()])
	}

	return builder.String(), nil
}

// NormalizeRoomCode - codes are used verbatim except for case and surrounding spaces.
func NormalizeRoomCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
