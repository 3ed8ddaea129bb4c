package inference

import (
	"regexp"

	"github.com/shopspring/decimal"

	"trade-autopsy/internal/types"
)

type pnlStrategy int

const (
	// pnlLast takes the rightmost number; terminal history tables put PnL last.
	pnlLast pnlStrategy = iota
	// pnlNearKeyword takes the first number after a PnL label.
	pnlNearKeyword
)

const (
	defaultMinLineLength = 10
	defaultMinNumbers    = 2
)

var defaultMaxLotSize = decimal.NewFromInt(1000)

// DefaultIgnoreKeywords mark ledger and header lines, never trade rows.
var DefaultIgnoreKeywords = []string{"balance", "credit", "total", "deposit", "withdrawal", "margin"}

var pnlKeywords = []string{"realized pnl", "realised pnl", "closed pnl", "pnl", "p&l", "profit"}

const currencyCodes = `EUR|USD|GBP|JPY|AUD|NZD|CAD|CHF|SEK|NOK|DKK|SGD|HKD|ZAR|MXN|TRY|PLN|CNH|HUF|CZK`

const cryptoBases = `SOL|XRP|BNB|DOGE|ADA|LTC|DOT|AVAX|LINK|MATIC|TRX|SHIB`

const indexTickers = `US30|NAS100|SPX500|GER30|GER40|DE30|DE40|USTEC|US500|US100|UK100|JP225|DOW|NDX`

var (
	assetPattern = regexp.MustCompile(`(?i)\b(` +
		`(?:` + currencyCodes + `)/?(?:` + currencyCodes + `)` +
		`|XA[UG]/?(?:` + currencyCodes + `)` +
		`|BTC\w*|ETH\w*` +
		`|(?:` + cryptoBases + `)/?(?:USDT|USDC|USD|PERP)` +
		`|` + indexTickers +
		`)\b`)

	// Exchanges list arbitrary coins against stablecoins; only trusted when
	// the OCR kept them uppercase.
	exchangeAssetPattern = regexp.MustCompile(`\b((?i:` +
		`(?:` + currencyCodes + `)/?(?:` + currencyCodes + `)` +
		`|XA[UG]/?(?:` + currencyCodes + `)` +
		`|BTC\w*|ETH\w*` +
		`|(?:` + cryptoBases + `)/?(?:USDT|USDC|USD|PERP)` +
		`|` + indexTickers +
		`)|[A-Z0-9]{2,10}/?(?:USDT|USDC|BUSD))\b`)

	buyPattern  = regexp.MustCompile(`(?i)\b(buy|long)\b`)
	sellPattern = regexp.MustCompile(`(?i)\b(sell|short)\b`)
)

// Rules parameterise the single row parser for one source format.
type Rules struct {
	Platform         types.Platform
	Asset            *regexp.Regexp
	RequireDirection bool
	PnL              pnlStrategy
	PnLKeywords      []string
	// Window is the number of following lines folded into a record.
	Window int
	// Protective is how many leftover tokens become stop-loss then take-profit.
	Protective     int
	MinNumbers     int
	MinLineLength  int
	IgnoreKeywords []string
	MaxLotSize     decimal.Decimal
}

// ruleTable builds the per-platform rules plus the generic fallback.
func ruleTable(o options) map[types.Platform]Rules {
	base := Rules{
		Asset:          assetPattern,
		PnLKeywords:    pnlKeywords,
		MinNumbers:     defaultMinNumbers,
		MinLineLength:  o.minLineLength,
		IgnoreKeywords: o.ignoreKeywords,
		MaxLotSize:     o.maxLotSize,
	}

	terminal := base
	terminal.Platform = types.PlatformDesktopTerminal
	terminal.RequireDirection = true
	terminal.PnL = pnlLast
	terminal.Protective = 2

	exchange := base
	exchange.Platform = types.PlatformExchangeLog
	exchange.Asset = exchangeAssetPattern
	exchange.RequireDirection = true
	exchange.PnL = pnlNearKeyword
	exchange.Window = 3

	charting := base
	charting.Platform = types.PlatformChartingTool
	charting.RequireDirection = true
	charting.PnL = pnlNearKeyword
	charting.Window = 1
	charting.Protective = 2

	generic := base
	generic.Platform = types.PlatformUnknown
	generic.PnL = pnlLast
	generic.Protective = 1

	return map[types.Platform]Rules{
		types.PlatformDesktopTerminal: terminal,
		types.PlatformExchangeLog:     exchange,
		types.PlatformChartingTool:    charting,
		types.PlatformUnknown:         generic,
	}
}
