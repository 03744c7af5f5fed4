package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"keepsake/internal/services"
)

// BlockSize is the read size used while hashing.
const BlockSize = 64 * 1024

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	return HashFiles(path)
}

// HashFiles returns the hex SHA-256 of the given files streamed one after
// another, as if they were a single file.
func HashFiles(paths ...string) (string, error) {
	h := sha256.New()
	buf := make([]byte, BlockSize)
	for _, path := range paths {
		if err := hashInto(h, path, buf); err != nil {
			return "", services.Wrap(services.ErrHash, "fingerprint", "hash", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashInto(w io.Writer, path string, buf []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.CopyBuffer(w, f, buf)
	return err
}
