package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
)

// Storage persists named files. Save may store the content under a
// different name when the requested one is taken, callers get the
// name actually used back.
type Storage interface {
	Save(ctx context.Context, name string, content []byte) (string, error)
	Open(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	URL(name string) (string, error)
}

// cleanName validates a storage name and returns it in canonical
// slash separated form.
func cleanName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q escapes the storage root", ErrInvalidName, name)
	}

	return cleaned, nil
}

// alternativeName appends a short random suffix to the file name
// part of name, ie: "news/photo.jpg" -> "news/photo_1a2b3c4.jpg"
func alternativeName(name string) string {
	dir, file := path.Split(name)
	ext := path.Ext(file)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]

	return dir + strings.TrimSuffix(file, ext) + "_" + suffix + ext
}

// availableName returns name if it is free, or a renamed variant
// that is not taken yet.
func availableName(
	ctx context.Context,
	name string,
	exists func(ctx context.Context, name string) (bool, error),
) (string, error) {
	candidate := name
	for {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate = alternativeName(name)
	}
}

func joinURL(baseURL, name string) string {
	if baseURL == "" {
		return "/" + name
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + name
}
