package thumbsgen

import (
	"image"
)

// SquareCropBox returns the largest square centered in a
// srcW x srcH image. Odd margins are floored so the box is always
// exactly min(srcW, srcH) wide and tall.
func SquareCropBox(srcW, srcH int) image.Rectangle {
	minSide := min(srcW, srcH)
	left := (srcW - minSide) / 2
	top := (srcH - minSide) / 2

	return image.Rect(left, top, left+minSide, top+minSide)
}

// FitWithin scales srcW x srcH so it fits inside the target box
// preserving aspect ratio. Images already inside the box are
// returned untouched, they are never enlarged.
func FitWithin(srcW, srcH int, box Size) (int, int) {
	if srcW <= box.Width && srcH <= box.Height {
		return srcW, srcH
	}

	// Compare srcW/srcH against box.Width/box.Height without floats
	if srcW*box.Height >= srcH*box.Width {
		h := (srcH*box.Width + srcW/2) / srcW
		return box.Width, max(h, 1)
	}

	w := (srcW*box.Height + srcH/2) / srcH
	return max(w, 1), box.Height
}

// targetDimensions resolves the final pixel size of a thumbnail for
// a source of srcW x srcH. Square targets are cropped first, so they
// always come out at exactly the requested size.
func targetDimensions(srcW, srcH int, size Size) (int, int) {
	if size.IsSquare() {
		return size.Width, size.Height
	}
	return FitWithin(srcW, srcH, size)
}
