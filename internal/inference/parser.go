package inference

import (
	"strings"

	"github.com/shopspring/decimal"

	"trade-autopsy/internal/types"
)

// parser turns normalized lines into trade candidates under one rule set.
// It never fails: records that lack a required signal are skipped and
// reported through emit.
type parser struct {
	rules Rules
	emit  func(types.InferenceEvent)
}

func (p parser) parse(lines []sourceLine, block int) []types.TradeCandidate {
	r := p.rules
	var trades []types.TradeCandidate

	for i, anchor := range lines {
		if r.Window == 0 && len(anchor.text) < r.MinLineLength {
			p.skip(block, anchor.number, types.SkipShort)
			continue
		}
		if containsAny(asciiLower(anchor.text), r.IgnoreKeywords) {
			p.skip(block, anchor.number, types.SkipIgnoredKeyword)
			continue
		}
		m := r.Asset.FindStringSubmatch(anchor.text)
		if m == nil {
			p.skip(block, anchor.number, types.SkipNoAsset)
			continue
		}

		record := p.record(lines, i)
		if len(record) < r.MinLineLength {
			p.skip(block, anchor.number, types.SkipShort)
			continue
		}

		dir := direction(record)
		if r.RequireDirection && dir == types.DirectionUnknown {
			p.skip(block, anchor.number, types.SkipNoDirection)
			continue
		}

		tokens, ts := tokenize(record)
		if len(tokens) < r.MinNumbers {
			p.skip(block, anchor.number, types.SkipTooFewNumbers)
			continue
		}

		tc := p.build(tokens, record)
		tc.Asset = normalizeAsset(m[1])
		tc.Direction = dir
		tc.Timestamp = ts
		tc.Block = block
		tc.Line = anchor.number

		if p.emit != nil {
			p.emit(types.InferenceEvent{Kind: types.EventTradeDetected, Block: block, Line: anchor.number, Platform: r.Platform, Trade: &tc})
		}
		trades = append(trades, tc)
	}
	return trades
}

// record joins the anchor with up to Window following lines, stopping at the
// next line that names an asset.
func (p parser) record(lines []sourceLine, i int) string {
	r := p.rules
	if r.Window == 0 {
		return lines[i].text
	}
	parts := []string{lines[i].text}
	for j := i + 1; j < len(lines) && j <= i+r.Window; j++ {
		next := lines[j].text
		if r.Asset.MatchString(next) {
			break
		}
		if containsAny(asciiLower(next), r.IgnoreKeywords) {
			continue
		}
		parts = append(parts, next)
	}
	return strings.Join(parts, " ")
}

func (p parser) build(tokens []numberToken, record string) types.TradeCandidate {
	r := p.rules
	classes := make([]roleCandidates, len(tokens))
	for i, tok := range tokens {
		classes[i] = classify(tok, r.MaxLotSize)
	}
	ra := assignRoles(tokens, classes, locatePnL(record, tokens, r.PnL, r.PnLKeywords), r.Protective)

	tc := types.TradeCandidate{
		Platform:     r.Platform,
		EntryPrice:   decimal.Zero,
		PositionSize: DefaultPositionSize,
		LossAmount:   tokens[ra.pnl].value,
	}
	if ra.size >= 0 {
		tc.PositionSize = tokens[ra.size].value
	}
	if ra.entry >= 0 {
		tc.EntryPrice = tokens[ra.entry].value.Abs()
	}
	if ra.stopLoss >= 0 && classes[ra.stopLoss].price {
		v := tokens[ra.stopLoss].value.Abs()
		tc.StopLoss = &v
	}
	if ra.takeProfit >= 0 && classes[ra.takeProfit].price {
		v := tokens[ra.takeProfit].value.Abs()
		tc.TakeProfit = &v
	}
	return tc
}

func (p parser) skip(block, line int, reason string) {
	if p.emit == nil {
		return
	}
	p.emit(types.InferenceEvent{Kind: types.EventLineSkipped, Block: block, Line: line, Platform: p.rules.Platform, Reason: reason})
}

// direction reports the first directional keyword in text.
func direction(text string) types.Direction {
	b := buyPattern.FindStringIndex(text)
	s := sellPattern.FindStringIndex(text)
	switch {
	case b == nil && s == nil:
		return types.DirectionUnknown
	case s == nil || (b != nil && b[0] < s[0]):
		return types.DirectionBuy
	default:
		return types.DirectionSell
	}
}

func normalizeAsset(s string) string {
	return strings.ReplaceAll(strings.ToUpper(s), "/", "")
}
