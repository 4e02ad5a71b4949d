package thumbsgen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/discord/lilliput"
)

// Size of the buffer lilliput encodes thumbnails into
const lilliputBufferSize = 50 * 1024 * 1024

// Formats the lilliput encoders can write, keyed by normalized name
var lilliputFileTypes = map[string]string{
	"jpeg": ".jpeg",
	"png":  ".png",
	"webp": ".webp",
	"gif":  ".gif",
}

// LilliputThumbsGenerator generates thumbnails through the
// discord/lilliput bindings (opencv, giflib, libwebp).
type LilliputThumbsGenerator struct{}

func NewLilliputThumbsGenerator() *LilliputThumbsGenerator {
	return &LilliputThumbsGenerator{}
}

func (g *LilliputThumbsGenerator) Generate(
	src []byte,
	size Size,
	format string,
) ([]byte, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}

	fileType, ok := lilliputFileTypes[strings.ToLower(NormalizeFormat(format))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	origWidth, origHeight, err := g.dimensions(src)
	if err != nil {
		return nil, err
	}

	method := g.resizeMethod(size)
	if size.IsSquare() && min(origWidth, origHeight) < size.Width {
		// lilliput's fit never enlarges. Crop the centered square at
		// its native size first, then stretch it to the exact target.
		side := min(origWidth, origHeight)
		src, err = g.transform(src, &lilliput.ImageOptions{
			FileType:             ".png",
			Width:                side,
			Height:               side,
			ResizeMethod:         lilliput.ImageOpsFit,
			NormalizeOrientation: true,
		})
		if err != nil {
			return nil, err
		}
		origWidth, origHeight = side, side
		method = lilliput.ImageOpsResize
	}

	tgtWidth, tgtHeight := targetDimensions(origWidth, origHeight, size)
	thumb, err := g.transform(src, &lilliput.ImageOptions{
		FileType:             fileType,
		Width:                tgtWidth,
		Height:               tgtHeight,
		ResizeMethod:         method,
		NormalizeOrientation: true,
		EncodeOptions: map[int]int{
			lilliput.JpegQuality: ThumbsQuality,
		},
	})
	if err != nil {
		return nil, err
	}

	slog.Debug(
		"Thumbnail generated",
		"size", size.String(),
		"format", fileType,
		"origWidth", origWidth,
		"origHeight", origHeight,
		"bytes", len(thumb),
	)
	return thumb, nil
}

// Square targets use lilliput's fit, which crops around the center
// and scales down to the exact size. Other targets were already
// reduced to fit geometry so a plain resize keeps the aspect ratio.
func (g *LilliputThumbsGenerator) resizeMethod(size Size) lilliput.ImageOpsSizeMethod {
	if size.IsSquare() {
		return lilliput.ImageOpsFit
	}
	return lilliput.ImageOpsResize
}

func (g *LilliputThumbsGenerator) dimensions(src []byte) (int, int, error) {
	decoder, err := lilliput.NewDecoder(src)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer decoder.Close()

	return g.getOrigDimensions(decoder)
}

// transform decodes src and runs a single lilliput pass over it
func (g *LilliputThumbsGenerator) transform(
	src []byte,
	opts *lilliput.ImageOptions,
) ([]byte, error) {
	decoder, err := lilliput.NewDecoder(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer decoder.Close()

	origWidth, origHeight, err := g.getOrigDimensions(decoder)
	if err != nil {
		return nil, err
	}

	ops := lilliput.NewImageOps(max(origWidth, origHeight, opts.Width, opts.Height))
	defer ops.Close()

	resizeBuffer := make([]byte, lilliputBufferSize)
	out, err := ops.Transform(decoder, opts, resizeBuffer)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: failed to create %s thumbnail: %v",
			ErrUnsupportedFormat,
			opts.FileType,
			err,
		)
	}
	return out, nil
}

func (g *LilliputThumbsGenerator) getOrigDimensions(
	decoder lilliput.Decoder,
) (int, int, error) {
	imgHeader, err := decoder.Header()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: failed to get image header: %v", ErrDecode, err)
	}

	origWidth := imgHeader.Width()
	origHeight := imgHeader.Height()
	if origWidth == 0 || origHeight == 0 {
		return 0, 0, fmt.Errorf(
			"%w: invalid original image dimensions: width=%d, height=%d",
			ErrDecode,
			origWidth,
			origHeight,
		)
	}

	return origWidth, origHeight, nil
}
