package seamcarve

import "errors"

var (
	// ErrInvalidImage is returned when the source image has no pixels
	// or uses a pixel layout other than 8-bit gray or 8-bit color.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnsupportedGrowth is returned when a target dimension exceeds the current one.
	// Seams can only be removed, never inserted.
	ErrUnsupportedGrowth = errors.New("unsupported growth")

	// ErrInvalidTarget is returned for target dimensions smaller than one pixel.
	ErrInvalidTarget = errors.New("invalid target size")

	// ErrUnsupportedFormat is returned for file extensions the encoder does not know.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
