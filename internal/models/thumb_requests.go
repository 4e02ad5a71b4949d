package models

import (
	"github.com/google/uuid"
)

type ThumbRequest struct {
	ThumbRequestId uuid.UUID `json:"thumbRequestId"`

	// Name of the image field the file belongs to, e.g.
	// 'news.entry.image'
	Field string `json:"field"`

	// Storage name of the original image, relative to 'MEDIA_ROOT'
	FileName string `json:"fileName"`
}
