package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Platform identifies the source layout a block of OCR text was taken from.
type Platform string

const (
	PlatformDesktopTerminal Platform = "desktop_terminal"
	PlatformExchangeLog     Platform = "exchange_log"
	PlatformChartingTool    Platform = "charting_tool"
	PlatformUnknown         Platform = "unknown"
)

type Direction string

const (
	DirectionBuy     Direction = "buy"
	DirectionSell    Direction = "sell"
	DirectionUnknown Direction = "unknown"
)

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium is reserved; nothing produces it yet.
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Ordering selects the sequence the summary's revenge-trade check walks.
type Ordering string

const (
	OrderingInput     Ordering = "input"
	OrderingTimestamp Ordering = "timestamp"
)

// TradeCandidate is a best-effort reconstruction of one trade. Only Asset is
// guaranteed; everything else may be a default.
type TradeCandidate struct {
	Asset        string           `json:"asset"`
	Direction    Direction        `json:"direction"`
	EntryPrice   decimal.Decimal  `json:"entry_price"`
	StopLoss     *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit   *decimal.Decimal `json:"take_profit,omitempty"`
	PositionSize decimal.Decimal  `json:"position_size"`
	LossAmount   decimal.Decimal  `json:"loss_amount"`
	Timestamp    *time.Time       `json:"timestamp,omitempty"`

	Platform Platform `json:"platform"`
	Block    int      `json:"block"`
	Line     int      `json:"line"`
}

type AccountSummary struct {
	NetPnl           decimal.Decimal `json:"net_pnl"`
	TradeCount       int             `json:"trade_count"`
	WinRate          float64         `json:"win_rate"`
	LargestLoss      decimal.Decimal `json:"largest_loss"`
	AvgLot           decimal.Decimal `json:"avg_lot"`
	OvertradingScore float64         `json:"overtrading_score"`
	RiskStacking     bool            `json:"risk_stacking"`
	RevengeCount     int             `json:"revenge_count"`
	OrderingVerified bool            `json:"ordering_verified"`
}

// BlockResult describes how a single input block was handled.
type BlockResult struct {
	Index      int      `json:"index"`
	Platform   Platform `json:"platform"`
	FellBack   bool     `json:"fell_back"`
	Candidates int      `json:"candidates"`
}

type InferenceResult struct {
	Trades         []TradeCandidate `json:"trades"`
	AccountSummary AccountSummary   `json:"account_summary"`
	Confidence     Confidence       `json:"confidence"`
	Blocks         []BlockResult    `json:"blocks"`
}

type EventKind string

const (
	EventBlockDetected    EventKind = "block_detected"
	EventFallback         EventKind = "fallback"
	EventLineSkipped      EventKind = "line_skipped"
	EventTradeDetected    EventKind = "trade_detected"
	EventDuplicateDropped EventKind = "duplicate_dropped"
	EventSummarized       EventKind = "summarized"
)

// Skip reasons carried by EventLineSkipped.
const (
	SkipShort          = "short"
	SkipIgnoredKeyword = "ignored_keyword"
	SkipNoAsset        = "no_asset"
	SkipNoDirection    = "no_direction"
	SkipTooFewNumbers  = "too_few_numbers"
)

// InferenceEvent is emitted to an optional observer while a call runs.
type InferenceEvent struct {
	Kind     EventKind
	Block    int
	Line     int
	Platform Platform
	Reason   string
	Trade    *TradeCandidate
	Summary  *AccountSummary
}
