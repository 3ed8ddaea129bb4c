package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-autopsy/internal/types"
)

// Format specifies the output format for autopsy reports
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

// Report is one inference run as presented to the user.
type Report struct {
	RunID     string                `json:"run_id"`
	Generated time.Time             `json:"generated"`
	Sources   []string              `json:"sources"`
	Result    types.InferenceResult `json:"result"`
}

// Reporter handles generation and storage of autopsy reports
type Reporter struct {
	outputDir string
}

func NewReporter(outputDir string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
	}
}

// ParseFormat accepts the names used in config and flags.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Generate renders the report in the specified format
func (r *Reporter) Generate(rep *Report, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return r.generateJSON(rep)
	case FormatText:
		return r.generateText(rep), nil
	case FormatCSV:
		return r.generateCSV(rep)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Save writes the report under the output directory and returns its path
func (r *Reporter) Save(rep *Report, format Format) (string, error) {
	content, err := r.Generate(rep, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", err
	}

	timestamp := rep.Generated.Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("autopsy_%s_%s.%s", timestamp, shortID(rep.RunID), format)
	path := filepath.Join(r.outputDir, filename)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Reporter) generateJSON(rep *Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Reporter) generateText(rep *Report) string {
	var sb strings.Builder
	res := rep.Result
	s := res.AccountSummary

	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString("TRADE AUTOPSY REPORT\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n", rep.Generated.Format("2006-01-02 15:04:05")))
	if rep.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: %s\n", rep.RunID))
	}
	for i, src := range rep.Sources {
		platform := types.PlatformUnknown
		fellBack := false
		if i < len(res.Blocks) {
			platform = res.Blocks[i].Platform
			fellBack = res.Blocks[i].FellBack
		}
		line := fmt.Sprintf("Source %d: %s (%s)", i+1, src, platform)
		if fellBack {
			line += " [generic fallback]"
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(fmt.Sprintf("Confidence: %s\n", strings.ToUpper(string(res.Confidence))))

	if res.Confidence == types.ConfidenceLow {
		sb.WriteString("\nNo trades could be recovered. Please confirm your trades manually before relying on this analysis.\n")
	}

	sb.WriteString(fmt.Sprintf("\nTRADES: %d\n", len(res.Trades)))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for i, t := range res.Trades {
		sb.WriteString(fmt.Sprintf("%d. %s %s size %s @ %s  PnL %s\n",
			i+1, t.Asset, strings.ToUpper(string(t.Direction)),
			t.PositionSize.String(), t.EntryPrice.String(), t.LossAmount.StringFixed(2)))
		if t.StopLoss != nil || t.TakeProfit != nil {
			sb.WriteString(fmt.Sprintf("   SL %s  TP %s\n", optional(t.StopLoss), optional(t.TakeProfit)))
		}
		if t.Timestamp != nil {
			sb.WriteString(fmt.Sprintf("   Time %s\n", t.Timestamp.Format("2006-01-02 15:04:05")))
		}
	}

	sb.WriteString("\nACCOUNT SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Net PnL:           %s\n", s.NetPnl.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Trade count:       %d\n", s.TradeCount))
	sb.WriteString(fmt.Sprintf("Win rate:          %.2f%%\n", s.WinRate))
	sb.WriteString(fmt.Sprintf("Largest loss:      %s\n", s.LargestLoss.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Average lot:       %s\n", s.AvgLot.Round(4).String()))
	sb.WriteString(fmt.Sprintf("Overtrading score: %.2f/100\n", s.OvertradingScore))

	if s.RiskStacking {
		sb.WriteString(fmt.Sprintf("⚠ RISK STACKING: size increased after a loss %d time(s)\n", s.RevengeCount))
	}
	if s.TradeCount > 1 && !s.OrderingVerified {
		sb.WriteString("Note: trade order taken from input, not verified against timestamps\n")
	}

	sb.WriteString(strings.Repeat("=", 80) + "\n")
	return sb.String()
}

func (r *Reporter) generateCSV(rep *Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	rows := [][]string{{"asset", "direction", "entry_price", "stop_loss", "take_profit", "position_size", "pnl", "timestamp", "platform", "block", "line"}}
	for _, t := range rep.Result.Trades {
		ts := ""
		if t.Timestamp != nil {
			ts = t.Timestamp.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			t.Asset,
			string(t.Direction),
			t.EntryPrice.String(),
			optionalCell(t.StopLoss),
			optionalCell(t.TakeProfit),
			t.PositionSize.String(),
			t.LossAmount.String(),
			ts,
			string(t.Platform),
			fmt.Sprint(t.Block),
			fmt.Sprint(t.Line),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func optional(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func optionalCell(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "run"
	}
	return id
}
