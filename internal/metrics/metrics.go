package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/types"
)

const namespace = "autopsy"

// Recorder counts engine events and keeps gauges for the last summary.
// Everything is registered on reg so a batch run can dump it to a
// node_exporter textfile.
type Recorder struct {
	reg *prometheus.Registry

	blocksTotal     *prometheus.CounterVec
	fallbacksTotal  *prometheus.CounterVec
	linesSkipped    *prometheus.CounterVec
	tradesDetected  *prometheus.CounterVec
	duplicatesTotal prometheus.Counter
	runsTotal       *prometheus.CounterVec

	netPnl           prometheus.Gauge
	winRate          prometheus.Gauge
	overtradingScore prometheus.Gauge
	revengeCount     prometheus.Gauge
	tradeCount       prometheus.Gauge
}

var _ interfaces.InferenceObserver = (*Recorder)(nil)

func NewRecorder(reg *prometheus.Registry) *Recorder {
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		blocksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "blocks_total",
			Help:      "Input blocks processed, by detected platform",
		}, []string{"platform"}),
		fallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "fallbacks_total",
			Help:      "Blocks re-parsed with the generic rules after the platform parser found nothing",
		}, []string{"platform"}),
		linesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "lines_skipped_total",
			Help:      "Lines rejected by the parser, by reason",
		}, []string{"reason"}),
		tradesDetected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "trades_detected_total",
			Help:      "Trade candidates recovered before dedupe, by platform",
		}, []string{"platform"}),
		duplicatesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "duplicates_dropped_total",
			Help:      "Trade candidates dropped as duplicates",
		}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "runs_total",
			Help:      "Inference runs, by confidence",
		}, []string{"confidence"}),
		netPnl: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "net_pnl",
			Help:      "Net PnL of the last summarized run",
		}),
		winRate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "win_rate_percent",
			Help:      "Win rate of the last summarized run",
		}),
		overtradingScore: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "overtrading_score",
			Help:      "Overtrading score (0-100) of the last summarized run",
		}),
		revengeCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "revenge_count",
			Help:      "Size escalations after a loss in the last summarized run",
		}),
		tradeCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "trade_count",
			Help:      "Deduplicated trades in the last summarized run",
		}),
	}
}

func (r *Recorder) Observe(ev types.InferenceEvent) {
	switch ev.Kind {
	case types.EventBlockDetected:
		r.blocksTotal.WithLabelValues(string(ev.Platform)).Inc()
	case types.EventFallback:
		r.fallbacksTotal.WithLabelValues(string(ev.Platform)).Inc()
	case types.EventLineSkipped:
		r.linesSkipped.WithLabelValues(ev.Reason).Inc()
	case types.EventTradeDetected:
		r.tradesDetected.WithLabelValues(string(ev.Platform)).Inc()
	case types.EventDuplicateDropped:
		r.duplicatesTotal.Inc()
	case types.EventSummarized:
		if s := ev.Summary; s != nil {
			pnl, _ := s.NetPnl.Float64()
			r.netPnl.Set(pnl)
			r.winRate.Set(s.WinRate)
			r.overtradingScore.Set(s.OvertradingScore)
			r.revengeCount.Set(float64(s.RevengeCount))
			r.tradeCount.Set(float64(s.TradeCount))
		}
	}
}

// RecordRun counts a finished run by its confidence label.
func (r *Recorder) RecordRun(result types.InferenceResult) {
	r.runsTotal.WithLabelValues(string(result.Confidence)).Inc()
}

// WriteTextfile dumps every metric in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
