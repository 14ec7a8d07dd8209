// Package digest fingerprints written trace artifacts so a batch can be
// compared run-over-run without re-reading the traces.
package digest

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// Bytes returns the hex-encoded BLAKE3 digest of content.
func Bytes(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// File returns the hex-encoded BLAKE3 digest of the file at path and its
// size in bytes.
func File(path string) (string, int64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("digest %s: %w", path, err)
	}
	return Bytes(content), int64(len(content)), nil
}
