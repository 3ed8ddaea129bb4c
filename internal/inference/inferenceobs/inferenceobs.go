package inferenceobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/logger"
	"trade-autopsy/internal/trace"
	"trade-autopsy/internal/types"
)

type observableInferer struct {
	inferer interfaces.Inferer
}

var _ interfaces.Inferer = (*observableInferer)(nil)

func Wrap(inf interfaces.Inferer) interfaces.Inferer {
	return &observableInferer{
		inferer: inf,
	}
}

func (oi *observableInferer) Infer(ctx context.Context, blocks []string) types.InferenceResult {
	ctx, span := trace.StartSpan(ctx, "inference.Infer")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting inference",
		"blocks", len(blocks),
	)

	result := oi.inferer.Infer(ctx, blocks)

	span.SetAttributes(
		attribute.Int("blocks", len(blocks)),
		attribute.Int("trades", len(result.Trades)),
		attribute.String("confidence", string(result.Confidence)),
	)

	s := result.AccountSummary
	logger.InfoSkip(ctx, 1, "Inference completed",
		"blocks", len(blocks),
		"trades", len(result.Trades),
		"confidence", result.Confidence,
		"net_pnl", s.NetPnl.String(),
		"win_rate", s.WinRate,
		"overtrading_score", s.OvertradingScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.RiskStacking {
		logger.Risk(ctx, "risk_stacking",
			"revenge_count", s.RevengeCount,
			"ordering_verified", s.OrderingVerified,
		)
	}
	if result.Confidence == types.ConfidenceLow {
		logger.WarnSkip(ctx, 1, "No trades recovered", "blocks", len(blocks))
	}

	return result
}

// LogObserver writes engine events to the structured logger. Skipped lines
// are logged only at debug level.
type LogObserver struct {
	ctx context.Context
}

var _ interfaces.InferenceObserver = (*LogObserver)(nil)

func NewLogObserver(ctx context.Context) *LogObserver {
	return &LogObserver{ctx: ctx}
}

func (o *LogObserver) Observe(ev types.InferenceEvent) {
	switch ev.Kind {
	case types.EventBlockDetected:
		logger.Debug(o.ctx, "Block classified", "block", ev.Block, "platform", ev.Platform)
	case types.EventFallback:
		logger.Info(o.ctx, "Platform parser found nothing, using generic rules",
			"block", ev.Block,
			"platform", ev.Platform,
		)
	case types.EventLineSkipped:
		logger.Debug(o.ctx, "Line skipped",
			"block", ev.Block,
			"line", ev.Line,
			"platform", ev.Platform,
			"reason", ev.Reason,
		)
	case types.EventTradeDetected:
		if t := ev.Trade; t != nil {
			logger.Trade(o.ctx, t.Asset, string(t.Direction), t.EntryPrice.String(), t.LossAmount.String(),
				"block", ev.Block,
				"line", ev.Line,
				"platform", ev.Platform,
				"size", t.PositionSize.String(),
			)
		}
	case types.EventDuplicateDropped:
		if t := ev.Trade; t != nil {
			logger.Debug(o.ctx, "Duplicate trade dropped",
				"asset", t.Asset,
				"block", ev.Block,
				"line", ev.Line,
			)
		}
	case types.EventSummarized:
		if s := ev.Summary; s != nil {
			logger.Debug(o.ctx, "Account summarized",
				"trade_count", s.TradeCount,
				"revenge_count", s.RevengeCount,
			)
		}
	}
}
