package files

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	apierrors "bitewatch/internal/errors"
	"bitewatch/pkg/contracts/domain"
)

// Describe stats path into a SourceInfo. The fingerprint field is left
// empty; callers compute it with Fingerprint only when the cheap identity
// (size + mtime) has actually changed.
func Describe(path string) (domain.SourceInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.SourceInfo{}, fmt.Errorf("%w: %s", apierrors.ErrSourceMissing, path)
		}
		return domain.SourceInfo{}, fmt.Errorf("failed to stat source %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.SourceInfo{}, fmt.Errorf("%w: %s is a directory", apierrors.ErrSourceMissing, path)
	}

	return domain.SourceInfo{
		Path:      path,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// Fingerprint computes the BLAKE2b-256 hex digest of the file's content
func Fingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", apierrors.ErrSourceMissing, path)
		}
		return "", fmt.Errorf("failed to open source %s: %w", path, err)
	}
	defer file.Close()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hasher: %w", err)
	}
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to hash source %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
