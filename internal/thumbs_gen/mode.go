package thumbsgen

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

type PixelMode string

const (
	ModeGray  PixelMode = "gray"
	ModeRGB   PixelMode = "rgb"
	ModeRGBA  PixelMode = "rgba"
	ModeOther PixelMode = "other"
)

// PixelModeOf classifies a decoded image by its channel layout.
// Palette, CMYK and alpha-only images fall into ModeOther.
func PixelModeOf(img image.Image) PixelMode {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.YCbCr:
		return ModeRGB
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return ModeRGBA
	default:
		return ModeOther
	}
}

// normalizeMode converts images outside the gray/rgb/rgba set into
// an opaque RGB image. Alpha is dropped, the color channels are kept
// as stored, so fully transparent palette entries keep their RGB.
func normalizeMode(img image.Image) image.Image {
	if PixelModeOf(img) != ModeOther {
		return img
	}

	if p, ok := img.(*image.Paletted); ok {
		img = opaquePalette(p)
	}

	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}

	return dst
}

func opaquePalette(p *image.Paletted) *image.Paletted {
	palette := make(color.Palette, len(p.Palette))
	for i, c := range p.Palette {
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		nc.A = 0xff
		palette[i] = nc
	}

	return &image.Paletted{
		Pix:     p.Pix,
		Stride:  p.Stride,
		Rect:    p.Rect,
		Palette: palette,
	}
}
