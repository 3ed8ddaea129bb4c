package journal

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"trade-autopsy/internal/types"
)

func fixedJournal(dir string, at time.Time) *Journal {
	j := New(dir)
	j.now = func() time.Time { return at }
	return j
}

func TestAppendWritesDailyJSONL(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	j := fixedJournal(dir, at)

	for _, id := range []string{"run-1", "run-2"} {
		err := j.Append(Entry{
			RunID:      id,
			Sources:    []string{"history.txt"},
			Platforms:  []types.Platform{types.PlatformDesktopTerminal},
			Confidence: types.ConfidenceHigh,
			TradeCount: 1,
			Summary:    types.AccountSummary{NetPnl: decimal.NewFromInt(-25), TradeCount: 1},
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "2024-01-15.jsonl"))
	if err != nil {
		t.Fatalf("Expected daily file: %v", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("invalid journal line: %v", err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].RunID != "run-2" {
		t.Errorf("Expected second entry run-2, got %s", entries[1].RunID)
	}
	if entries[0].Time != "2024-01-15T10:30:00Z" {
		t.Errorf("Expected stamped time, got %s", entries[0].Time)
	}
	if !entries[0].Summary.NetPnl.Equal(decimal.NewFromInt(-25)) {
		t.Errorf("Expected net pnl -25, got %s", entries[0].Summary.NetPnl)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	j := fixedJournal(dir, now)

	old := filepath.Join(dir, "2024-01-01.jsonl")
	fresh := filepath.Join(dir, "2024-02-29.jsonl")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte(`{"run_id":"x"}`+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Chtimes(old, now.AddDate(0, 0, -60), now.AddDate(0, 0, -60)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(fresh, now, now); err != nil {
		t.Fatal(err)
	}

	if err := j.CompressOlder(30); err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("Expected old file to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Expected fresh file to be kept")
	}

	gz, err := os.Open(old + ".gz")
	if err != nil {
		t.Fatalf("Expected gzip file: %v", err)
	}
	defer gz.Close()
	zr, err := gzip.NewReader(gz)
	if err != nil {
		t.Fatalf("invalid gzip: %v", err)
	}
	b, _ := io.ReadAll(zr)
	if string(b) != `{"run_id":"x"}`+"\n" {
		t.Errorf("Unexpected gzip content %q", b)
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "missing"))
	if err := j.CompressOlder(0); err != nil {
		t.Errorf("Expected no error when retention is off, got %v", err)
	}
}

func TestCompressOlderReportsFailures(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	j := fixedJournal(dir, now)

	broken := filepath.Join(dir, "2024-01-01.jsonl")
	ok := filepath.Join(dir, "2024-01-02.jsonl")
	for _, p := range []string{broken, ok} {
		if err := os.WriteFile(p, []byte(`{"run_id":"x"}`+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, now.AddDate(0, 0, -60), now.AddDate(0, 0, -60)); err != nil {
			t.Fatal(err)
		}
	}
	// a directory in the way of the archive makes the gzip write fail
	if err := os.Mkdir(broken+".gz", 0o755); err != nil {
		t.Fatal(err)
	}

	if err := j.CompressOlder(30); err == nil {
		t.Fatal("Expected an error for the file that could not be compressed")
	}
	if _, err := os.Stat(broken); err != nil {
		t.Error("Expected the uncompressed file to be kept")
	}
	if _, err := os.Stat(ok + ".gz"); err != nil {
		t.Errorf("Expected remaining files to still be compressed: %v", err)
	}
}
