// Package caption talks to the vision API that describes uploaded images and
// owns the two-line record format the results are stored in.
package caption

import "context"

// Result is a generated caption/description pair for one image.
type Result struct {
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

// Sentinel text substituted when the generator fails. Captioning is
// best-effort: a failed call must never block an upload.
const (
	FallbackCaption     = "Error analyzing image"
	FallbackDescription = "Unable to process image description"
)

// Sentinel text substituted when a stored record is absent or malformed.
const (
	MissingCaption     = "No caption available"
	MissingDescription = "No description available"
)

// Generator produces a caption and description for raw image bytes.
type Generator interface {
	Describe(ctx context.Context, image []byte, mimeType string) (Result, error)
}

// Fallback returns the sentinel pair used when generation fails.
func Fallback() Result {
	return Result{Caption: FallbackCaption, Description: FallbackDescription}
}
