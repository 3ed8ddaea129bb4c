package interfaces

import (
	"context"

	"trade-autopsy/internal/types"
)

// Inferer reconstructs trades from OCR text blocks. Blocks are handled in
// order; ctx is used for tracing only and never cancels a call.
type Inferer interface {
	Infer(ctx context.Context, blocks []string) types.InferenceResult
}
