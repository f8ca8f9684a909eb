package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs on the local filesystem. The HTTP layer serves the
// root directory under BaseURL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore prepares root for writing.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory blobs are written under.
func (s *LocalStore) Root() string {
	return s.root
}

// Put writes the blob atomically through a temp file and rename.
func (s *LocalStore) Put(_ context.Context, obj Object) (Stored, error) {
	key, err := cleanKey(obj.Key)
	if err != nil {
		return Stored{}, err
	}
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Stored{}, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return Stored{}, fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(obj.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Stored{}, fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Stored{}, fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return Stored{}, fmt.Errorf("commit object: %w", err)
	}

	return Stored{Key: key, URL: s.baseURL + "/" + key}, nil
}

// Delete removes the blob; a missing blob is not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ping checks that the root directory is still writable.
func (s *LocalStore) Ping(_ context.Context) error {
	f, err := os.CreateTemp(s.root, ".ping-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
