package inference

import (
	"trade-autopsy/internal/types"
)

type dedupeKey struct {
	asset string
	entry string
	pnl   string
}

// Dedupe drops repeats of (asset, entry price, PnL), keeping the first
// occurrence. Zero-PnL candidates are always kept because zero is the
// placeholder value, not evidence of identity.
func Dedupe(trades []types.TradeCandidate) []types.TradeCandidate {
	return dedupe(trades, nil)
}

func dedupe(trades []types.TradeCandidate, emit func(types.InferenceEvent)) []types.TradeCandidate {
	out := make([]types.TradeCandidate, 0, len(trades))
	seen := make(map[dedupeKey]struct{}, len(trades))

	for i := range trades {
		t := trades[i]
		if t.LossAmount.IsZero() {
			out = append(out, t)
			continue
		}
		// String() drops trailing zeros, so 50000.00 and 50000 share a key.
		k := dedupeKey{asset: t.Asset, entry: t.EntryPrice.String(), pnl: t.LossAmount.String()}
		if _, dup := seen[k]; dup {
			if emit != nil {
				emit(types.InferenceEvent{Kind: types.EventDuplicateDropped, Block: t.Block, Line: t.Line, Platform: t.Platform, Trade: &t})
			}
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
