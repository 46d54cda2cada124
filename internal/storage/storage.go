// Package storage keeps uploaded files (payment proofs, avatars, assignment files) on the local filesystem
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for file names that would escape the storage directory
var ErrInvalidName = errors.New("invalid file name")

// Subdirectories of the media base path, one per kind of upload
const (
	ProofDir      = "payment_proofs"
	AvatarDir     = "avatars"
	SubmissionDir = "submissions"
)

// LocalStorage stores files in one subdirectory of a base directory
type LocalStorage struct {
	basePath string
	dir      string
}

// NewLocalStorage creates a new LocalStorage for payment proofs rooted at basePath
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath, dir: ProofDir}
}

// In returns a storage sharing the base directory but keeping its files in dir
func (s *LocalStorage) In(dir string) *LocalStorage {
	return &LocalStorage{basePath: s.basePath, dir: dir}
}

func (s *LocalStorage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return filepath.Join(s.basePath, s.dir, name), nil
}

// Save writes r to a new file called name and returns the number of bytes written
// A partially written file is removed on failure
func (s *LocalStorage) Save(name string, r io.Reader) (int64, error) {
	path, err := s.path(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create storage directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	counter := &sizeWriter{}
	_, copyErr := io.Copy(f, io.TeeReader(r, counter))
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("failed to write file: %w", copyErr)
	}
	return counter.size, nil
}

// Open opens a stored file for reading
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes a stored file
func (s *LocalStorage) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// GenerateFileName generates a UUID-based file name with the given extension
func GenerateFileName(extension string) string {
	if extension != "" && extension[0] != '.' {
		extension = "." + extension
	}
	return uuid.NewString() + extension
}

// sizeWriter counts the bytes written through it
type sizeWriter struct {
	size int64
}

func (sw *sizeWriter) Write(p []byte) (int, error) {
	sw.size += int64(len(p))
	return len(p), nil
}
