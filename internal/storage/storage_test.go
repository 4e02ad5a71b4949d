package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	fs, err := NewFileSystemStorage(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("NewFileSystemStorage: %v", err)
	}

	return map[string]Storage{
		"filesystem": fs,
		"memory":     NewMemoryStorage("/media/"),
	}
}

func TestStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			actual, err := s.Save(ctx, "news/photo.jpg", []byte("data"))
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if actual != "news/photo.jpg" {
				t.Errorf("Save() actual = %q, want news/photo.jpg", actual)
			}

			content, err := s.Open(ctx, actual)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if string(content) != "data" {
				t.Errorf("Open() = %q, want data", content)
			}

			url, err := s.URL(actual)
			if err != nil {
				t.Fatalf("URL() error = %v", err)
			}
			if url != "/media/news/photo.jpg" {
				t.Errorf("URL() = %q, want /media/news/photo.jpg", url)
			}

			if err := s.Delete(ctx, actual); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if ok, _ := s.Exists(ctx, actual); ok {
				t.Error("file still exists after Delete()")
			}
			if err := s.Delete(ctx, actual); !errors.Is(err, ErrNotFound) {
				t.Errorf("second Delete() error = %v, want ErrNotFound", err)
			}
			if _, err := s.Open(ctx, actual); !errors.Is(err, ErrNotFound) {
				t.Errorf("Open() after delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorage_SaveRenamesOnCollision(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			first, err := s.Save(ctx, "photo.125x125.jpg", []byte("one"))
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			second, err := s.Save(ctx, "photo.125x125.jpg", []byte("two"))
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			if second == first {
				t.Fatalf("second Save() reused name %q", second)
			}
			if !strings.HasPrefix(second, "photo.125x125_") || !strings.HasSuffix(second, ".jpg") {
				t.Errorf("second Save() = %q, want photo.125x125_<suffix>.jpg", second)
			}

			content, _ := s.Open(ctx, first)
			if string(content) != "one" {
				t.Errorf("original content overwritten: %q", content)
			}
		})
	}
}

func TestStorage_RejectsEscapingNames(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, bad := range []string{"", "  ", "../secret.jpg", "/etc/passwd", "a/../../b.jpg"} {
				_, err := s.Save(ctx, bad, []byte("x"))
				if !errors.Is(err, ErrInvalidName) {
					t.Errorf("Save(%q) error = %v, want ErrInvalidName", bad, err)
					continue
				}
				// The rejected name is reported as given
				if !strings.Contains(err.Error(), strconv.Quote(bad)) {
					t.Errorf("Save(%q) error = %q, want it to name the input", bad, err)
				}
			}
		})
	}
}

func TestFileSystemStorage_WritesBelowRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStorage(root, "")
	if err != nil {
		t.Fatalf("NewFileSystemStorage: %v", err)
	}

	if _, err := s.Save(context.Background(), "a/b/c.png", []byte("png")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "a", "b", "c.png")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}

	url, _ := s.URL("a/b/c.png")
	if url != "/a/b/c.png" {
		t.Errorf("URL() = %q, want /a/b/c.png", url)
	}
}

func TestMemoryStorage_Names(t *testing.T) {
	s := NewMemoryStorage("")
	ctx := context.Background()

	for _, n := range []string{"b.jpg", "a.jpg"} {
		if _, err := s.Save(ctx, n, nil); err != nil {
			t.Fatalf("Save(%q) error = %v", n, err)
		}
	}

	got := s.Names()
	if len(got) != 2 || got[0] != "a.jpg" || got[1] != "b.jpg" {
		t.Errorf("Names() = %v, want [a.jpg b.jpg]", got)
	}
}
