package interfaces

import "trade-autopsy/internal/types"

// InferenceObserver receives parse events. Implementations must not retain
// the Trade or Summary pointers beyond the call.
type InferenceObserver interface {
	Observe(ev types.InferenceEvent)
}
