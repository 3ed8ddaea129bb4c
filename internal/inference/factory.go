package inference

import (
	"github.com/shopspring/decimal"

	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/store"
	"trade-autopsy/internal/types"
)

// New builds an engine from configuration. Explicit opts win over cfg.
func New(cfg *store.Config, opts ...Option) interfaces.Inferer {
	return NewEngine(append(configOptions(cfg), opts...)...)
}

func configOptions(cfg *store.Config) []Option {
	if cfg == nil {
		return nil
	}
	in := cfg.Inference
	opts := []Option{
		WithMinLineLength(in.MinLineLength),
		WithIgnoreKeywords(in.IgnoreKeywords),
		WithOrdering(types.Ordering(in.Ordering)),
	}
	if in.MaxLotSize > 0 {
		opts = append(opts, WithMaxLotSize(decimal.NewFromFloat(in.MaxLotSize)))
	}
	return opts
}
