package inference

import (
	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/types"
)

// ObserverFunc adapts a plain function to an InferenceObserver.
type ObserverFunc func(types.InferenceEvent)

func (f ObserverFunc) Observe(ev types.InferenceEvent) { f(ev) }

type multiObserver []interfaces.InferenceObserver

func (m multiObserver) Observe(ev types.InferenceEvent) {
	for _, o := range m {
		o.Observe(ev)
	}
}

// Observers fans events out to every non-nil observer, in order.
func Observers(obs ...interfaces.InferenceObserver) interfaces.InferenceObserver {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	if len(m) == 0 {
		return nil
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
