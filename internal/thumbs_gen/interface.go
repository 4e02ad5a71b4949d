package thumbsgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidSize       = errors.New("invalid thumbnail size")
	ErrDecode            = errors.New("source is not a decodable image")
	ErrUnsupportedFormat = errors.New("unsupported thumbnail format")
)

// Quality used when the target format is jpeg
const ThumbsQuality = 85

// Size is the target (width, height) of a thumbnail in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ParseSize parses sizes written as "<width>x<height>", ie: "300x200"
func ParseSize(s string) (Size, error) {
	wStr, hStr, ok := strings.Cut(strings.TrimSpace(strings.ToLower(s)), "x")
	if !ok {
		return Size{}, fmt.Errorf("%w: %q, expected <width>x<height>", ErrInvalidSize, s)
	}

	w, err := strconv.Atoi(wStr)
	if err != nil {
		return Size{}, fmt.Errorf("%w: bad width in %q: %v", ErrInvalidSize, s, err)
	}
	h, err := strconv.Atoi(hStr)
	if err != nil {
		return Size{}, fmt.Errorf("%w: bad height in %q: %v", ErrInvalidSize, s, err)
	}

	size := Size{Width: w, Height: h}
	if err := size.Validate(); err != nil {
		return Size{}, err
	}
	return size, nil
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

func (s Size) IsSquare() bool {
	return s.Width == s.Height
}

func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf(
			"%w: width=%d, height=%d, both must be positive",
			ErrInvalidSize,
			s.Width,
			s.Height,
		)
	}
	return nil
}

// UnmarshalText allows sizes to be written as "WxH" strings in
// config files.
func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// NormalizeFormat maps a format name (usually a file extension) to
// the identifier understood by encoders. "jpg" in any case becomes
// "jpeg", every other name is passed through unchanged. Encoders
// match the result case-insensitively.
func NormalizeFormat(format string) string {
	if strings.EqualFold(format, "jpg") {
		return "jpeg"
	}
	return format
}

// ThumbsGenerator produces an encoded thumbnail from an encoded
// source image. Implementations must not touch storage.
type ThumbsGenerator interface {
	Generate(src []byte, size Size, format string) ([]byte, error)
}
