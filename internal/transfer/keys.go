package transfer

import (
	"encoding/hex"
	"io"
	"log/slog"
	"math/rand/v2"
)

// KeySize is the length in bytes of a generated private key.
const KeySize = 32

// generateKey reads KeySize bytes from src and renders them as lowercase hex.
// When src fails a pseudo-random generator is used instead and weak is set;
// such keys are only fit for the demo chain.
func generateKey(src io.Reader) (key string, weak bool) {
	buf := make([]byte, KeySize)
	_, err := io.ReadFull(src, buf)
	if err == nil {
		return hex.EncodeToString(buf), false
	}
	slog.Warn("Secure random source unavailable, generated key is not safe for production use", "error", err)

	for i := range buf {
		buf[i] = byte(rand.IntN(256))
	}
	return hex.EncodeToString(buf), true
}
