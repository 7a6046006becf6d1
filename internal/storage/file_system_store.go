package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemStore keeps each blob as one file under a root directory. This is
// the default backend; the directory holds ciphertext only, but files are
// still created 0600 under a 0700 root.
type FileSystemStore struct {
	root string
}

func NewFileSystemStore(root string) (*FileSystemStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &FileSystemStore{root: abs}, nil
}

// path maps a locator to a file path. Locators are generated internally, but
// path separators are rejected anyway so a corrupt record can never address
// outside the root.
func (s *FileSystemStore) path(locator string) (string, error) {
	if locator == "" || strings.ContainsAny(locator, `/\`) || locator != filepath.Base(locator) {
		return "", fmt.Errorf("invalid blob locator %q", locator)
	}
	return filepath.Join(s.root, locator), nil
}

func (s *FileSystemStore) Put(ctx context.Context, locator string, data []byte) error {
	p, err := s.path(locator)
	if err != nil {
		return err
	}

	// Write-then-rename so a crash mid-write never leaves a torn blob at
	// the final locator.
	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		return fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set blob permissions: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store blob: %w", err)
	}
	return nil
}

func (s *FileSystemStore) Get(ctx context.Context, locator string) ([]byte, error) {
	p, err := s.path(locator)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *FileSystemStore) Delete(ctx context.Context, locator string) error {
	p, err := s.path(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *FileSystemStore) Exists(ctx context.Context, locator string) (bool, error) {
	p, err := s.path(locator)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileSystemStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	locators := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		locators = append(locators, e.Name())
	}
	return locators, nil
}
