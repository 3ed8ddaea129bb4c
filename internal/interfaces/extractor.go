package interfaces

import "context"

// TextExtractor turns a screenshot into text.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}
