package thumbsgen

import (
	"fmt"
	"strings"
)

const (
	EngineImaging  = "imaging"
	EngineLilliput = "lilliput"
)

// NewThumbsGenerator builds the generator for the named engine.
// An empty name selects the pure Go imaging engine.
func NewThumbsGenerator(engine string) (ThumbsGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineImaging:
		return NewImagingThumbsGenerator(), nil
	case EngineLilliput:
		return NewLilliputThumbsGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown thumbnails engine %q", engine)
	}
}
