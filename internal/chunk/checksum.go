package chunk

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Checksum hashes the file at path with xxh3 and returns the 64-bit digest
// as fixed-width hex.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("chunk: open %s: %w", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("chunk: hash %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// VerifyChecksum recomputes the digest of path and compares it to want.
func VerifyChecksum(path, want string) error {
	got, err := Checksum(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("chunk: checksum mismatch for %s: manifest has %s, file has %s", path, want, got)
	}
	return nil
}
