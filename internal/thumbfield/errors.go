package thumbfield

import "errors"

var (
	ErrNaming        = errors.New("file name has no extension separator")
	ErrNameCollision = errors.New("thumbnail name already taken in storage")
)
