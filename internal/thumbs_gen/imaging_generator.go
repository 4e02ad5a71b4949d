package thumbsgen

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp" // Register BMP format
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WEBP format (decode only)
)

// ImagingGenerator is a pure Go generator backed by
// disintegration/imaging.
type ImagingGenerator struct {
	filter imaging.ResampleFilter
}

func NewImagingThumbsGenerator() *ImagingGenerator {
	return &ImagingGenerator{
		filter: imaging.Lanczos,
	}
}

func (g *ImagingGenerator) Generate(
	src []byte,
	size Size,
	format string,
) ([]byte, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}

	encFormat, err := imaging.FormatFromExtension(NormalizeFormat(format))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	img, err := g.decode(src)
	if err != nil {
		return nil, err
	}

	mode := PixelModeOf(img)
	img = normalizeMode(img)

	thumb := g.transform(img, size)
	if mode == ModeGray {
		thumb = toGray(thumb)
	}

	var buf bytes.Buffer
	err = imaging.Encode(
		&buf,
		thumb,
		encFormat,
		imaging.JPEGQuality(ThumbsQuality),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: failed to encode %s thumbnail: %v",
			ErrUnsupportedFormat,
			format,
			err,
		)
	}

	slog.Debug(
		"Thumbnail generated",
		"size", size.String(),
		"format", encFormat.String(),
		"sourceMode", mode,
		"bytes", buf.Len(),
	)
	return buf.Bytes(), nil
}

func (g *ImagingGenerator) decode(src []byte) (image.Image, error) {
	if !filetype.IsImage(src) {
		return nil, fmt.Errorf("%w: unrecognized file signature", ErrDecode)
	}

	img, err := imaging.Decode(
		bytes.NewReader(src),
		imaging.AutoOrientation(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf(
			"%w: invalid dimensions width=%d, height=%d",
			ErrDecode,
			bounds.Dx(),
			bounds.Dy(),
		)
	}

	return img, nil
}

func (g *ImagingGenerator) transform(img image.Image, size Size) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if size.IsSquare() {
		box := SquareCropBox(srcW, srcH).Add(bounds.Min)
		cropped := imaging.Crop(img, box)
		return imaging.Resize(cropped, size.Width, size.Height, g.filter)
	}

	w, h := FitWithin(srcW, srcH, size)
	if w == srcW && h == srcH {
		return img
	}
	return imaging.Resize(img, w, h, g.filter)
}

// imaging always hands back NRGBA, bring grayscale sources back
// to a single channel before encoding.
func toGray(img image.Image) image.Image {
	if _, ok := img.(*image.Gray); ok {
		return img
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(gray, gray.Bounds(), img, bounds.Min, xdraw.Src)
	return gray
}
