package provenance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/farcloser/shootout/internal/failure"
)

const chunkSize = 8192

// HashFile returns the hex SHA-256 of the file at path, reading it in fixed-size chunks.
func HashFile(path string) (string, error) {
	file, err := os.Open(path) //nolint:gosec // hashed inputs are user-provided
	if err != nil {
		return "", fmt.Errorf("%w: %w", failure.ErrIO, err)
	}
	defer file.Close()

	return HashReader(file)
}

// HashReader returns the hex SHA-256 of everything read from reader.
func HashReader(reader io.Reader) (string, error) {
	digest := sha256.New()

	// Wrapped so io.CopyBuffer cannot bypass the fixed buffer through WriterTo.
	if _, err := io.CopyBuffer(digest, struct{ io.Reader }{reader}, make([]byte, chunkSize)); err != nil {
		return "", fmt.Errorf("%w: %w", failure.ErrIO, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
