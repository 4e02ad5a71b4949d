package thumbfield

import (
	"fmt"
	"strings"

	thumbsgen "github.com/giobyte8/newsroom/internal/thumbs_gen"
)

// SplitName splits name on its last "." into base and extension,
// ie: "news/photo.jpg" -> ("news/photo", "jpg").
func SplitName(name string) (string, string, error) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: %q has no extension", ErrNaming, name)
	}
	return name[:idx], name[idx+1:], nil
}

// ThumbName derives the name of the thumbnail of the given size,
// ie: ("photo.jpg", 125x125) -> "photo.125x125.jpg".
func ThumbName(name string, size thumbsgen.Size) (string, error) {
	base, ext, err := SplitName(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%dx%d.%s", base, size.Width, size.Height, ext), nil
}

// URLFor applies the thumbnail naming rule to an already resolved
// original URL. It reports false when there is no URL to derive
// from or it has no extension.
func URLFor(originalURL string, size thumbsgen.Size) (string, bool) {
	if originalURL == "" {
		return "", false
	}

	thumbURL, err := ThumbName(originalURL, size)
	if err != nil {
		return "", false
	}
	return thumbURL, true
}
