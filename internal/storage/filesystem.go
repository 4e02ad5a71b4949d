package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileSystemStorage stores files below a root directory and serves
// them from BaseURL.
type FileSystemStorage struct {
	root    string
	baseURL string
}

func NewFileSystemStorage(root, baseURL string) (*FileSystemStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root directory cannot be empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %s: %w", root, err)
	}

	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, fmt.Errorf(
			"failed to create storage root %s: %w",
			absRoot,
			err,
		)
	}

	return &FileSystemStorage{
		root:    absRoot,
		baseURL: baseURL,
	}, nil
}

func (s *FileSystemStorage) Save(
	ctx context.Context,
	name string,
	content []byte,
) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", fmt.Errorf("failed to save: %w", err)
	}
	name = cleaned

	actual, err := availableName(ctx, name, s.Exists)
	if err != nil {
		return "", fmt.Errorf("failed to find available name for %s: %w", name, err)
	}

	absPath := s.path(actual)
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return "", fmt.Errorf(
			"failed to create directory for %s: %w",
			actual,
			err,
		)
	}

	// O_EXCL so a concurrent writer of the same name is never overwritten
	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", actual, err)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(absPath)
		return "", fmt.Errorf("failed to write file %s: %w", actual, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file %s: %w", actual, err)
	}

	if actual != name {
		slog.Debug("Storage renamed file", "requested", name, "actual", actual)
	}
	return actual, nil
}

func (s *FileSystemStorage) Open(ctx context.Context, name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}

	return content, nil
}

func (s *FileSystemStorage) Delete(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	err = os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to remove file %s: %w", name, err)
	}

	return nil
}

func (s *FileSystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	name, err := cleanName(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", name, err)
	}

	return true, nil
}

func (s *FileSystemStorage) URL(name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return joinURL(s.baseURL, name), nil
}

func (s *FileSystemStorage) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}
