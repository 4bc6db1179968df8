package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrImageTooLarge is returned when an image exceeds the inline size limit.
	ErrImageTooLarge = errors.New("image exceeds inline size limit")

	// ErrImageFetch is returned when the image cannot be downloaded.
	ErrImageFetch = errors.New("failed to fetch image")
)
