package inference

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"trade-autopsy/internal/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("Expected %s %s, got %s", field, want, got)
	}
}

func TestNormalize(t *testing.T) {
	lines := normalize("| EURUSD | buy | 0,50 | (25.00) |\r\n\r\n\tGBPUSD sell \u22121.5 $40.00\n")

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].text != "EURUSD buy 0,50 -25.00" || lines[0].number != 1 {
		t.Errorf("Unexpected first line %+v", lines[0])
	}
	if lines[1].text != "GBPUSD sell -1.5 40.00" || lines[1].number != 3 {
		t.Errorf("Unexpected second line %+v", lines[1])
	}
}

func TestSingleCleanTradeLine(t *testing.T) {
	res := InferTrades("EURUSD buy 0.50 1.1050 1.1000 1.1100 -25.00")

	if len(res.Trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Asset != "EURUSD" {
		t.Errorf("Expected asset EURUSD, got %s", tr.Asset)
	}
	if tr.Direction != types.DirectionBuy {
		t.Errorf("Expected direction buy, got %s", tr.Direction)
	}
	assertDecimal(t, "size", tr.PositionSize, "0.5")
	assertDecimal(t, "pnl", tr.LossAmount, "-25")
	assertDecimal(t, "entry", tr.EntryPrice, "1.105")
	if tr.StopLoss == nil || !tr.StopLoss.Equal(dec("1.1")) {
		t.Errorf("Expected stop-loss 1.1, got %v", tr.StopLoss)
	}
	if res.Confidence != types.ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", res.Confidence)
	}
}

func TestDesktopTerminalBlock(t *testing.T) {
	block := `MetaTrader 5 History
Time Symbol Type Volume Price S / L T / P Profit
2024.01.15 10:30:00 EURUSD buy 0.50 1.1050 1.1000 1.1100 -25.00
2024.01.15 11:00:00 GBP/USD sell 1.00 1.2700 1.2750 1.2600 40.00
Balance: 10,000.00`

	trades := NewEngine().ParseBlock(block)
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(trades))
	}

	first, second := trades[0], trades[1]
	if first.Platform != types.PlatformDesktopTerminal {
		t.Errorf("Expected desktop_terminal, got %s", first.Platform)
	}
	if first.Line != 3 {
		t.Errorf("Expected line 3, got %d", first.Line)
	}
	if first.TakeProfit == nil || !first.TakeProfit.Equal(dec("1.11")) {
		t.Errorf("Expected take-profit 1.11, got %v", first.TakeProfit)
	}
	if first.Timestamp == nil || !first.Timestamp.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("Unexpected timestamp %v", first.Timestamp)
	}

	if second.Asset != "GBPUSD" {
		t.Errorf("Expected slash stripped asset GBPUSD, got %s", second.Asset)
	}
	if second.Direction != types.DirectionSell {
		t.Errorf("Expected sell, got %s", second.Direction)
	}
	assertDecimal(t, "size", second.PositionSize, "1")
	assertDecimal(t, "entry", second.EntryPrice, "1.27")
	assertDecimal(t, "pnl", second.LossAmount, "40")
}

func TestExchangeLogBlock(t *testing.T) {
	block := `Binance Futures Trade History
BTCUSDT Long
Qty 0.010 Entry 42,000.50
Realized PnL -12.30
ETHUSDT Short
Qty 0.50 Entry 2,250.00
Realized PnL 35.10`

	trades := NewEngine().ParseBlock(block)
	if len(trades) != 2 {
		t.Fatalf("Expected 2 trades, got %d: %+v", len(trades), trades)
	}

	btc := trades[0]
	if btc.Asset != "BTCUSDT" || btc.Direction != types.DirectionBuy {
		t.Errorf("Unexpected first trade %s %s", btc.Asset, btc.Direction)
	}
	if btc.Platform != types.PlatformExchangeLog {
		t.Errorf("Expected exchange_log, got %s", btc.Platform)
	}
	assertDecimal(t, "size", btc.PositionSize, "0.01")
	assertDecimal(t, "entry", btc.EntryPrice, "42000.5")
	assertDecimal(t, "pnl", btc.LossAmount, "-12.3")
	if btc.StopLoss != nil {
		t.Errorf("Expected no stop-loss for exchange rows, got %v", btc.StopLoss)
	}

	eth := trades[1]
	if eth.Asset != "ETHUSDT" || eth.Direction != types.DirectionSell {
		t.Errorf("Unexpected second trade %s %s", eth.Asset, eth.Direction)
	}
	assertDecimal(t, "pnl", eth.LossAmount, "35.1")
	assertDecimal(t, "entry", eth.EntryPrice, "2250")
}

func TestChartingToolBlock(t *testing.T) {
	block := `TradingView Strategy Tester
List of trades
XAUUSD Long 2024-01-15 10:30 Entry 2,050.25 Contracts 0.20
Exit 2,060.75 Profit 21.00`

	trades := NewEngine().ParseBlock(block)
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(trades))
	}

	tr := trades[0]
	if tr.Asset != "XAUUSD" || tr.Platform != types.PlatformChartingTool {
		t.Errorf("Unexpected trade %s on %s", tr.Asset, tr.Platform)
	}
	assertDecimal(t, "size", tr.PositionSize, "0.2")
	assertDecimal(t, "entry", tr.EntryPrice, "2050.25")
	assertDecimal(t, "pnl", tr.LossAmount, "21")
	if tr.Timestamp == nil || tr.Timestamp.Hour() != 10 {
		t.Errorf("Expected timestamp at 10:30, got %v", tr.Timestamp)
	}
}

func TestUnknownPlatformUsesGenericParser(t *testing.T) {
	res := InferTrades("random words on a screenshot\nXAUUSD 2,050.25 12.50")

	if len(res.Trades) != 1 {
		t.Fatalf("Expected 1 trade from fallback, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Direction != types.DirectionUnknown {
		t.Errorf("Expected unknown direction, got %s", tr.Direction)
	}
	if tr.Platform != types.PlatformUnknown {
		t.Errorf("Expected unknown platform, got %s", tr.Platform)
	}
	assertDecimal(t, "entry", tr.EntryPrice, "2050.25")
	assertDecimal(t, "pnl", tr.LossAmount, "12.5")
}

func TestDefaultPositionSizeLiteral(t *testing.T) {
	trades := NewEngine().ParseBlock("XAUUSD 2,050.25 12.50")
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(trades))
	}
	if trades[0].PositionSize.String() != "0.1" {
		t.Errorf("Expected default size literal 0.1, got %s", trades[0].PositionSize)
	}

	detected := NewEngine().ParseBlock("EURUSD buy 0.10 1.1050 -25.00")
	if len(detected) != 1 || !detected[0].PositionSize.Equal(DefaultPositionSize) {
		t.Fatalf("Expected detected size 0.1, got %+v", detected)
	}
	if detected[0].PositionSize.String() != "0.1" {
		t.Errorf("Expected detected size to print as 0.1, got %s", detected[0].PositionSize)
	}
}

func TestPlatformParserFallsBack(t *testing.T) {
	res := NewEngine().Infer(context.Background(), []string{"MT4 export\nEURUSD 0.50 1.1050 -25.00"})

	if len(res.Trades) != 1 {
		t.Fatalf("Expected fallback trade, got %d", len(res.Trades))
	}
	if len(res.Blocks) != 1 {
		t.Fatalf("Expected 1 block report, got %d", len(res.Blocks))
	}
	b := res.Blocks[0]
	if b.Platform != types.PlatformDesktopTerminal || !b.FellBack || b.Candidates != 1 {
		t.Errorf("Unexpected block report %+v", b)
	}
}

func TestLineFiltering(t *testing.T) {
	block := `EURUSD 0.5
Deposit EURUSD 1,000.00 0.50
Margin GBPUSD buy 0.50 1.2700 -5.00
no asset here 0.50 1.2700 -5.00
EURUSD buy 1.1050`

	if trades := NewEngine().ParseBlock(block); len(trades) != 0 {
		t.Errorf("Expected every line to be filtered, got %+v", trades)
	}
}

func TestAssetMatchIsCurated(t *testing.T) {
	// six-letter words are not currency pairs
	if trades := NewEngine().ParseBlock("REPORT buy 0.50 1.1050 -25.00"); len(trades) != 0 {
		t.Errorf("Expected no trade for a plain word, got %+v", trades)
	}
	trades := NewEngine().ParseBlock("us30 sell 1.00 38,500.50 -120.00")
	if len(trades) != 1 || trades[0].Asset != "US30" {
		t.Errorf("Expected index ticker US30, got %+v", trades)
	}
}

func TestParsingIsIdempotent(t *testing.T) {
	block := `MetaTrader 4
2024.01.15 10:30 EURUSD buy 0.50 1.1050 1.1000 1.1100 -25.00
2024.01.15 11:30 XAUUSD sell 0.20 2,050.25 2,060.00 2,030.00 (15.50)`

	e := NewEngine()
	first := e.ParseBlock(block)
	second := e.ParseBlock(block)

	if len(first) != 2 || len(first) != len(second) {
		t.Fatalf("Expected 2 trades twice, got %d and %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Asset != b.Asset || !a.EntryPrice.Equal(b.EntryPrice) || !a.LossAmount.Equal(b.LossAmount) ||
			!a.PositionSize.Equal(b.PositionSize) || a.Line != b.Line || !a.Timestamp.Equal(*b.Timestamp) {
			t.Errorf("trade %d differs between runs: %+v vs %+v", i, a, b)
		}
	}
	assertDecimal(t, "accounting negative pnl", first[1].LossAmount, "-15.5")
}

func TestNeverFailsOnGarbage(t *testing.T) {
	inputs := []string{
		"",
		"\x00\xff\xfe binary \x01\x02",
		"||||||||\n────\n",
		"EURUSD",
		"1.1.1.1.1 ,,,, ... -- ++",
	}
	for _, in := range inputs {
		res := InferTrades(in)
		if len(res.Trades) != 0 {
			t.Errorf("Expected no trades for %q, got %d", in, len(res.Trades))
		}
	}
}

func TestInvalidBytesBeforePnLLabel(t *testing.T) {
	res := InferTrades("Bybit Closed PnL\nBTCUSDT Long \xff\xff\xff\xff\xff\xff 0.010 Entry 50,000.00 PnL -100.00 fee 1.25")
	if len(res.Trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(res.Trades))
	}
	assertDecimal(t, "pnl", res.Trades[0].LossAmount, "-100")
	assertDecimal(t, "entry", res.Trades[0].EntryPrice, "50000")
}

func TestDecimalCommaBelowOne(t *testing.T) {
	trades := NewEngine().ParseBlock("EURUSD buy 0,500 1,1050 -25,00")
	if len(trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(trades))
	}
	assertDecimal(t, "size", trades[0].PositionSize, "0.5")
	assertDecimal(t, "entry", trades[0].EntryPrice, "1.105")
	assertDecimal(t, "pnl", trades[0].LossAmount, "-25")
}
