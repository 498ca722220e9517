// Package artifact stores payment check images. The core validates the bytes
// before anything is written; this package only deals with placement.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes payment artifacts and returns an opaque reference.
type Store interface {
	Save(ctx context.Context, registrationID uuid.UUID, ext string, data []byte) (string, error)
}

// FileStore keeps artifacts on the local filesystem under one directory,
// named by registration with a random suffix so re-uploads never collide.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, registrationID uuid.UUID, ext string, data []byte) (string, error) {
	if ext == "" {
		ext = ".bin"
	}
	name := fmt.Sprintf("%s-%s%s", registrationID, uuid.NewString()[:8], ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return name, nil
}
