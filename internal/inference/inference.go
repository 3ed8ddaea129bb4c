package inference

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/types"
)

type options struct {
	observer       interfaces.InferenceObserver
	ordering       types.Ordering
	minLineLength  int
	maxLotSize     decimal.Decimal
	ignoreKeywords []string
}

// Option configures an Engine.
type Option func(*options)

// WithObserver attaches an observer; without one the engine is silent.
func WithObserver(obs interfaces.InferenceObserver) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithOrdering selects how the summary orders trades.
func WithOrdering(ordering types.Ordering) Option {
	return func(o *options) {
		if ordering == types.OrderingTimestamp || ordering == types.OrderingInput {
			o.ordering = ordering
		}
	}
}

func WithMinLineLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minLineLength = n
		}
	}
}

// WithMaxLotSize sets the exclusive upper bound for a size token.
func WithMaxLotSize(v decimal.Decimal) Option {
	return func(o *options) {
		if v.IsPositive() {
			o.maxLotSize = v
		}
	}
}

// WithIgnoreKeywords replaces the ledger vocabulary that disqualifies a line.
func WithIgnoreKeywords(keywords []string) Option {
	return func(o *options) {
		if len(keywords) == 0 {
			return
		}
		lowered := make([]string, 0, len(keywords))
		for _, k := range keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				lowered = append(lowered, k)
			}
		}
		o.ignoreKeywords = lowered
	}
}

// Engine is the inference orchestrator. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	opts  options
	rules map[types.Platform]Rules
}

var _ interfaces.Inferer = (*Engine)(nil)

func NewEngine(opts ...Option) *Engine {
	o := options{
		ordering:       types.OrderingInput,
		minLineLength:  defaultMinLineLength,
		maxLotSize:     defaultMaxLotSize,
		ignoreKeywords: DefaultIgnoreKeywords,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{opts: o, rules: ruleTable(o)}
}

// InferTrades runs a default engine over blocks.
func InferTrades(blocks ...string) types.InferenceResult {
	return NewEngine().Infer(context.Background(), blocks)
}

// Infer processes blocks strictly in order: detect, parse with the platform
// rules, fall back to the generic rules when that yields nothing, then
// dedupe the concatenation and summarise it.
func (e *Engine) Infer(_ context.Context, blocks []string) types.InferenceResult {
	var all []types.TradeCandidate
	reports := make([]types.BlockResult, 0, len(blocks))

	for i, text := range blocks {
		trades, report := e.parseBlock(text, i)
		all = append(all, trades...)
		reports = append(reports, report)
	}

	unique := dedupe(all, e.emit)
	summary := summarizeOrdered(unique, e.opts.ordering)
	e.emit(types.InferenceEvent{Kind: types.EventSummarized, Summary: &summary})

	confidence := types.ConfidenceLow
	if len(unique) > 0 {
		confidence = types.ConfidenceHigh
	}

	return types.InferenceResult{
		Trades:         unique,
		AccountSummary: summary,
		Confidence:     confidence,
		Blocks:         reports,
	}
}

// ParseBlock runs detection and parsing for a single block without dedupe.
func (e *Engine) ParseBlock(text string) []types.TradeCandidate {
	trades, _ := e.parseBlock(text, 0)
	return trades
}

func (e *Engine) parseBlock(text string, block int) ([]types.TradeCandidate, types.BlockResult) {
	platform := Detect(text)
	e.emit(types.InferenceEvent{Kind: types.EventBlockDetected, Block: block, Platform: platform})

	lines := normalize(text)
	report := types.BlockResult{Index: block, Platform: platform}

	var trades []types.TradeCandidate
	if platform != types.PlatformUnknown {
		trades = parser{rules: e.rules[platform], emit: e.emit}.parse(lines, block)
	}
	if len(trades) == 0 {
		if platform != types.PlatformUnknown {
			report.FellBack = true
			e.emit(types.InferenceEvent{Kind: types.EventFallback, Block: block, Platform: platform})
		}
		trades = parser{rules: e.rules[types.PlatformUnknown], emit: e.emit}.parse(lines, block)
	}

	report.Candidates = len(trades)
	return trades, report
}

func (e *Engine) emit(ev types.InferenceEvent) {
	if e.opts.observer != nil {
		e.opts.observer.Observe(ev)
	}
}
