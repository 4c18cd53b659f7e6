// Package storage provides object storage implementations for media files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
	"github.com/natefinch/atomic"
)

var (
	_ mediaapp.ObjectStore = (*LocalStorage)(nil)
	_ mediaapp.LocalPather = (*LocalStorage)(nil)
)

// LocalStorage stores objects as files below a root directory
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root directory if needed
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: abs}, nil
}

// Root returns the absolute root directory
func (s *LocalStorage) Root() string {
	return s.root
}

// path maps key to a file below root, rejecting keys that escape it
func (s *LocalStorage) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", shared.ErrInvalidInput.WithDetails("storage key %q escapes the media root", key)
	}
	return p, nil
}

// LocalPath returns the file backing key
func (s *LocalStorage) LocalPath(key string) (string, bool) {
	p, err := s.path(key)
	return p, err == nil
}

// Put writes body to a temporary file and renames it over key
func (s *LocalStorage) Put(_ context.Context, key string, body io.ReadSeeker, _ int64, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}
	if err := atomic.WriteFile(p, body); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Stat returns the size and modification time of key
func (s *LocalStorage) Stat(_ context.Context, key string) (mediaapp.ObjectInfo, error) {
	p, err := s.path(key)
	if err != nil {
		return mediaapp.ObjectInfo{}, err
	}
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return mediaapp.ObjectInfo{}, shared.ErrNotFound.WithDetails("object %s", key)
		}
		return mediaapp.ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if fi.IsDir() {
		return mediaapp.ObjectInfo{}, shared.ErrNotFound.WithDetails("object %s", key)
	}
	return mediaapp.ObjectInfo{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Open returns a reader over a byte range of key
func (s *LocalStorage) Open(_ context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, shared.ErrNotFound.WithDetails("object %s", key)
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("seek %s: %w", key, err)
		}
	}
	if length < 0 {
		return f, nil
	}
	return readCloser{Reader: io.LimitReader(f, length), Closer: f}, nil
}

// Delete removes key; a missing file is not an error
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

type readCloser struct {
	io.Reader
	io.Closer
}
