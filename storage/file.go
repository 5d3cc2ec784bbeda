package storage

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/ruteri/contract-instance-registry/interfaces"
)

// FileBackend implements a storage backend using the local file system.
// Descriptors are stored flat under the base directory, named by the hex
// SHA-256 digest of their content.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file storage backend rooted at the specified
// base directory, creating it if needed.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	// Format the URI for tracking
	uri := fmt.Sprintf("file://%s", baseDir)

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: uri,
	}, nil
}

// Fetch retrieves a descriptor by the digest its pointer names. Only the
// last path element of the pointer is used, so pointers cannot escape the
// configured directory. Returns ErrContentNotFound if the file doesn't exist.
func (b *FileBackend) Fetch(ctx context.Context, loc interfaces.MetadataLocation) ([]byte, error) {
	filePath := filepath.Join(b.baseDir, path.Base(loc.Path))

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, interfaces.ErrContentNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b.log.Debug("Fetched descriptor from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves a descriptor under the hex SHA-256 digest of its content and
// returns the pointer it can be fetched back with.
func (b *FileBackend) Store(ctx context.Context, data []byte) (interfaces.MetadataLocation, error) {
	digest := fmt.Sprintf("%x", sha256.Sum256(data))
	filePath := filepath.Join(b.baseDir, digest)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return interfaces.MetadataLocation{}, fmt.Errorf("failed to write file: %w", err)
	}

	b.log.Debug("Stored descriptor in file",
		slog.String("path", filePath),
		slog.String("digest", digest))

	return interfaces.ParseMetadataLocation(fmt.Sprintf("file://%s/%s", b.baseDir, digest))
}

// Available checks if the file backend is accessible by verifying the base
// directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// Scheme returns the pointer scheme this backend resolves.
func (b *FileBackend) Scheme() string {
	return "file"
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}
