package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStorage keeps files in process memory. It follows the same
// renaming policy as FileSystemStorage.
type MemoryStorage struct {
	mu      sync.RWMutex
	files   map[string][]byte
	baseURL string
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		files:   make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (s *MemoryStorage) Save(
	ctx context.Context,
	name string,
	content []byte,
) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", fmt.Errorf("failed to save: %w", err)
	}
	name = cleaned

	s.mu.Lock()
	defer s.mu.Unlock()

	actual, err := availableName(ctx, name, s.existsLocked)
	if err != nil {
		return "", err
	}

	s.files[actual] = append([]byte(nil), content...)
	return actual, nil
}

func (s *MemoryStorage) Open(ctx context.Context, name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), content...), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.files, name)
	return nil
}

func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	name, err := cleanName(name)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.existsLocked(ctx, name)
}

func (s *MemoryStorage) URL(name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return joinURL(s.baseURL, name), nil
}

// Names lists stored names in lexical order
func (s *MemoryStorage) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *MemoryStorage) existsLocked(_ context.Context, name string) (bool, error) {
	_, ok := s.files[name]
	return ok, nil
}
