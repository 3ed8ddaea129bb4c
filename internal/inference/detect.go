package inference

import (
	"strings"

	"trade-autopsy/internal/types"
)

// signature matches when every keyword is present.
type signature []string

type platformSignatures struct {
	platform   types.Platform
	signatures []signature
}

// detectionOrder is evaluated top to bottom; the first platform with a
// matching signature wins.
var detectionOrder = []platformSignatures{
	{
		platform: types.PlatformDesktopTerminal,
		signatures: []signature{
			{"metatrader"}, {"mt4"}, {"mt5"}, {"ctrader"},
			{"s/l", "t/p"}, {"s / l", "t / p"},
		},
	},
	{
		platform: types.PlatformExchangeLog,
		signatures: []signature{
			{"realized pnl"}, {"realised pnl"}, {"closed pnl"},
			{"qty", "side"}, {"binance"}, {"bybit"},
		},
	},
	{
		platform: types.PlatformChartingTool,
		signatures: []signature{
			{"tradingview"}, {"list of trades"}, {"strategy", "entry", "exit"},
		},
	},
}

// Detect classifies a block of raw OCR text by keyword signatures.
func Detect(text string) types.Platform {
	lower := strings.ToLower(text)
	for _, ps := range detectionOrder {
		for _, sig := range ps.signatures {
			if sig.matches(lower) {
				return ps.platform
			}
		}
	}
	return types.PlatformUnknown
}

func (s signature) matches(lower string) bool {
	for _, k := range s {
		if !strings.Contains(lower, k) {
			return false
		}
	}
	return len(s) > 0
}
