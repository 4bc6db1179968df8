package generation

import "errors"

// Common errors returned by generators
var (
	// ErrGenerationFailed is returned when alt text generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate alt text")

	// ErrInvalidResponse is returned when the model response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model refuses the image due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyImageURL is returned when a request carries no image
	ErrEmptyImageURL = errors.New("image url cannot be empty")
)
