package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"bhss/ports"
)

// LocalStore writes blobs under a directory that the API serves at URLPrefix
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir, urlPrefix string) (ports.BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Put stores body at key and returns its public URL
func (s *LocalStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create blob %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return s.urlPrefix + "/" + path.Clean(key), nil
}

// Delete removes key; a missing blob is not an error
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// resolve maps key into the store directory, refusing keys that escape it
func (s *LocalStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
