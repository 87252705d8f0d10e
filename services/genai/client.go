package genai

import "context"

// Part is one unit of a provider response: either text or raw binary
// data with a MIME type. A part never carries both.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// IsImage reports whether the part carries binary image data.
func (p Part) IsImage() bool {
	return len(p.Data) > 0
}

// ImageInput is an optional image attached to a generation request.
type ImageInput struct {
	Data     []byte
	MIMEType string
}

// Client defines the standard interface for any image-generation backend.
type Client interface {
	Generate(ctx context.Context, prompt string, image *ImageInput) ([]Part, error)
}
