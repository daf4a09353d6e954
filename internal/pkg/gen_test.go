package pkg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCode(t *testing.T) {
	t.Run("Generates uppercase alphanumeric codes of the requested length", func(t *testing.T) {
		for range 50 {
			code, err := GenerateRoomCode(6)
			require.NoError(t, err)

			assert.Len(t, code, 6)
			for _, r := range code {
				assert.True(t, strings.ContainsRune(roomCodeAlphabet, r), "unexpected rune %q", r)
			}
		}
	})

	t.Run("Rejects a non-positive length", func(t *testing.T) {
		_, err := GenerateRoomCode(0)
		assert.Error(t, err)
	})
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeRoomCode("  ab12Cd\n"))
}
