package inference

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"trade-autopsy/internal/types"
)

const (
	// overtradingWindow trades in one batch already score 100.
	overtradingWindow = 20
	revengePenalty    = 20
	maxScore          = 100
)

// EmptySummary is the all-zero summary reported when nothing was recovered.
func EmptySummary() types.AccountSummary {
	return types.AccountSummary{
		NetPnl:      decimal.Zero,
		LargestLoss: decimal.Zero,
		AvgLot:      decimal.Zero,
	}
}

// Summarize reduces trades, in the given order, to account statistics. The
// order is trusted as chronological; OrderingVerified is left false.
func Summarize(trades []types.TradeCandidate) types.AccountSummary {
	if len(trades) == 0 {
		return EmptySummary()
	}

	s := EmptySummary()
	totalSize := decimal.Zero
	wins := 0

	for i, t := range trades {
		s.NetPnl = s.NetPnl.Add(t.LossAmount)
		if t.LossAmount.IsPositive() {
			wins++
		}
		if t.LossAmount.LessThan(s.LargestLoss) {
			s.LargestLoss = t.LossAmount
		}
		totalSize = totalSize.Add(t.PositionSize)

		// revenge sizing: a bigger position straight after a loss
		if i > 0 {
			prev := trades[i-1]
			if prev.LossAmount.IsNegative() && t.PositionSize.GreaterThan(prev.PositionSize) {
				s.RevengeCount++
			}
		}
	}

	n := len(trades)
	s.TradeCount = n
	s.WinRate = float64(wins) / float64(n) * 100
	s.AvgLot = totalSize.Div(decimal.NewFromInt(int64(n)))

	score := math.Min(float64(n)*100/overtradingWindow, maxScore)
	if s.RevengeCount > 1 {
		score += revengePenalty
	}
	s.OvertradingScore = math.Min(score, maxScore)
	s.RiskStacking = s.RevengeCount > 0
	return s
}

// summarizeOrdered applies the ordering policy. Timestamp ordering is only
// used, and only reported as verified, when every trade carries a timestamp.
func summarizeOrdered(trades []types.TradeCandidate, ordering types.Ordering) types.AccountSummary {
	if ordering != types.OrderingTimestamp || len(trades) == 0 {
		return Summarize(trades)
	}
	for _, t := range trades {
		if t.Timestamp == nil {
			return Summarize(trades)
		}
	}

	sorted := make([]types.TradeCandidate, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(*sorted[j].Timestamp)
	})

	s := Summarize(sorted)
	s.OrderingVerified = true
	return s
}
