package gemini

import (
	"net/http"
	"strings"
)

// TextRequest is a single-turn text completion.
type TextRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// ImageRequest asks the image model for one picture built from a prompt and
// optional reference photos.
type ImageRequest struct {
	Prompt      string
	References  []ImageInput
	AspectRatio string
}

type ImageInput struct {
	Data     []byte
	MimeType string
}

// Image is a decoded inline image from a model response.
type Image struct {
	Data     []byte
	MimeType string
}

// NewImageInput wraps raw bytes, resolving the MIME type from the hint first,
// then from the content, falling back to image/jpeg.
func NewImageInput(data []byte, hint string) ImageInput {
	return ImageInput{Data: data, MimeType: DetectMimeType(data, hint)}
}

func DetectMimeType(data []byte, hint string) string {
	mimeType := baseMime(hint)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = baseMime(http.DetectContentType(data))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

func baseMime(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return strings.ToLower(v)
}
