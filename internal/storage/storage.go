package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/illegalcall/quickfix/internal/apperror"
)

// Storage defines the interface for image storage operations
type Storage interface {
	// StoreImage validates and stores an image, returning its path and MIME type
	StoreImage(ctx context.Context, data []byte) (path string, mimeType string, err error)

	// Read loads a stored image
	Read(ctx context.Context, path string) ([]byte, error)

	// Delete removes a file from storage
	Delete(ctx context.Context, path string) error
}

// LocalStorage implements Storage interface using local filesystem
type LocalStorage struct {
	dir     string
	maxSize int64
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(dir string, maxSize int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	return &LocalStorage{dir: abs, maxSize: maxSize}, nil
}

// Sniff returns the detected MIME type when data is an accepted image.
func (s *LocalStorage) Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperror.Validation("image", "image is empty")
	}
	if int64(len(data)) > s.maxSize {
		return "", apperror.Validation("image", fmt.Sprintf("image exceeds %d bytes", s.maxSize))
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", apperror.Validation("image", "only image files are accepted")
	}
	return mtype.String(), nil
}

func (s *LocalStorage) StoreImage(ctx context.Context, data []byte) (string, string, error) {
	mtype, err := s.Sniff(data)
	if err != nil {
		return "", "", err
	}

	file, err := os.CreateTemp(s.dir, "img-*"+mimetype.Lookup(mtype).Extension())
	if err != nil {
		return "", "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		os.Remove(file.Name()) // Clean up on error
		return "", "", fmt.Errorf("failed to write image file: %w", err)
	}

	return file.Name(), mtype, nil
}

func (s *LocalStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if !s.contains(path) {
		return nil, fmt.Errorf("invalid file path: must be within storage directory")
	}
	return os.ReadFile(path)
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if !s.contains(path) {
		return fmt.Errorf("invalid file path: must be within storage directory")
	}
	return os.Remove(path)
}

func (s *LocalStorage) contains(path string) bool {
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

// DecodeImage accepts raw base64 or a data URL (data:image/png;base64,...).
func DecodeImage(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "data:") {
		comma := strings.IndexByte(input, ',')
		if comma < 0 || !strings.HasSuffix(input[:comma], ";base64") {
			return nil, apperror.Validation("image", "image must be base64 encoded")
		}
		input = input[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(input)
	}
	if err != nil {
		return nil, apperror.Validation("image", "image is not valid base64")
	}
	return data, nil
}
