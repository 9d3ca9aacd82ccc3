// Package fs is a document.Bucket backed by a local directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rezkam/taskly/internal/infrastructure/persistence/document"
)

var _ document.Bucket = (*Bucket)(nil)

// Bucket stores each object as a file under baseDir.
type Bucket struct {
	baseDir string
	mu      sync.RWMutex
}

// NewBucket creates the base directory if needed and returns a bucket over it.
func NewBucket(baseDir string) (*Bucket, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Bucket{baseDir: baseDir}, nil
}

// NewStore is a shortcut for document.NewStore over a directory bucket.
func NewStore(baseDir string) (*document.Store, error) {
	b, err := NewBucket(baseDir)
	if err != nil {
		return nil, err
	}
	return document.NewStore(b), nil
}

func (b *Bucket) path(name string) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(name))
}

// Read returns the file contents.
func (b *Bucket) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, document.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Write stores data atomically by renaming a temp file into place.
func (b *Bucket) Write(ctx context.Context, name string, data []byte, createOnly bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.path(name)
	if createOnly {
		if _, err := os.Stat(path); err == nil {
			return document.ErrObjectExists
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Delete removes the file.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document.ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List walks the directory that holds prefix and returns matching object names.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	root := b.baseDir
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		root = b.path(prefix[:i])
	}

	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(b.baseDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	return names, nil
}

// Close is a no-op for directories.
func (b *Bucket) Close() error {
	return nil
}
