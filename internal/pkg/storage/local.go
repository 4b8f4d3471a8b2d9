package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// LocalBackend writes blobs to a directory on the application host. It is the
// default backend and also the landing zone the reconciler downloads into.
type LocalBackend struct {
	baseDir      string
	publicPrefix string
}

// NewLocalBackend creates a local filesystem backend rooted at baseDir.
// Blobs are served publicly under publicPrefix (e.g. "/uploads/images").
func NewLocalBackend(baseDir, publicPrefix string) *LocalBackend {
	return &LocalBackend{
		baseDir:      baseDir,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
	}
}

func (b *LocalBackend) Name() string { return "local" }

// BaseDir returns the directory the backend writes into.
func (b *LocalBackend) BaseDir() string { return b.baseDir }

func (b *LocalBackend) Store(_ context.Context, name string, data []byte, _ string) (*Stored, error) {
	fullPath := filepath.Join(b.baseDir, name)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	log.Infof("[LocalStorage] Saved %s (%d bytes)", fullPath, len(data))

	return &Stored{
		Locator:    NewLocalLocator(name),
		ExternalID: name,
		PublicURL:  b.URLFor(name),
		Size:       int64(len(data)),
	}, nil
}

func (b *LocalBackend) Delete(_ context.Context, key string) error {
	fullPath := filepath.Join(b.baseDir, key)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			// Already gone; the record delete must still succeed.
			log.Warnf("[LocalStorage] Delete of missing file %s ignored", fullPath)
			return nil
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

func (b *LocalBackend) List(_ context.Context) ([]Object, error) {
	entries, err := os.ReadDir(b.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list upload directory: %w", err)
	}

	var objects []Object
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		obj := Object{Key: entry.Name(), URL: b.URLFor(entry.Name())}
		if info, err := entry.Info(); err == nil {
			obj.Size = info.Size()
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (b *LocalBackend) Fetch(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.baseDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read file %s: %w", key, err)
	}
	return data, nil
}

func (b *LocalBackend) URLFor(key string) string {
	return b.publicPrefix + "/" + filepath.ToSlash(key)
}
