package thumbfield

import (
	"errors"
	"testing"

	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

func TestThumbName(t *testing.T) {
	tests := []struct {
		name string
		size thumbsgen.Size
		want string
	}{
		{"photo.jpg", thumbsgen.Size{Width: 125, Height: 125}, "photo.125x125.jpg"},
		{"photo.jpg", thumbsgen.Size{Width: 300, Height: 200}, "photo.300x200.jpg"},
		{"news/2021/my.photo.PNG", thumbsgen.Size{Width: 64, Height: 32}, "news/2021/my.photo.64x32.PNG"},
		{"archive.tar.gz", thumbsgen.Size{Width: 1, Height: 2}, "archive.tar.1x2.gz"},
		{"trailing.", thumbsgen.Size{Width: 10, Height: 10}, "trailing.10x10."},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := ThumbName(tt.name, tt.size)
			if err != nil {
				t.Fatalf("ThumbName() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ThumbName(%q, %v) = %q, want %q", tt.name, tt.size, got, tt.want)
			}

			again, _ := ThumbName(tt.name, tt.size)
			if again != got {
				t.Errorf("ThumbName() not deterministic: %q != %q", again, got)
			}
		})
	}
}

func TestThumbName_NoSeparator(t *testing.T) {
	for _, name := range []string{"photo", "", "news/photo"} {
		if _, err := ThumbName(name, thumbsgen.Size{Width: 1, Height: 1}); !errors.Is(err, ErrNaming) {
			t.Errorf("ThumbName(%q) error = %v, want ErrNaming", name, err)
		}
	}
}

func TestURLFor(t *testing.T) {
	size := thumbsgen.Size{Width: 125, Height: 125}

	got, ok := URLFor("/media/news/photo.jpg", size)
	if !ok || got != "/media/news/photo.125x125.jpg" {
		t.Errorf("URLFor() = (%q, %v), want /media/news/photo.125x125.jpg", got, ok)
	}

	if got, ok := URLFor("", size); ok || got != "" {
		t.Errorf("URLFor(\"\") = (%q, %v), want empty", got, ok)
	}
}
