package inference

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPositionSize is reported when no plausible size token exists.
// Downstream risk math divides by the size, so it must stay non-zero.
var DefaultPositionSize = decimal.RequireFromString("0.1")

var (
	numberPattern = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)+`)

	// year first: 2024.01.15 10:30:00, 2024-01-15T10:30
	isoDatePattern = regexp.MustCompile(`\b(\d{4})[./-](\d{2})[./-](\d{2})(?:[ T](\d{2}):(\d{2})(?::(\d{2}))?)?`)
	// day first: 15.01.2024 10:30
	dmyDatePattern = regexp.MustCompile(`\b(\d{2})[./-](\d{2})[./-](\d{4})(?:[ T](\d{2}):(\d{2})(?::(\d{2}))?)?`)
)

type numberToken struct {
	value  decimal.Decimal
	offset int
	raw    string
}

// tokenize cuts timestamps out of text and returns the numeric tokens left
// to right. The first parseable timestamp is returned as well.
func tokenize(text string) ([]numberToken, *time.Time) {
	scan := []byte(text)
	var ts *time.Time

	for _, p := range []struct {
		re       *regexp.Regexp
		dayFirst bool
	}{{isoDatePattern, false}, {dmyDatePattern, true}} {
		for _, m := range p.re.FindAllSubmatchIndex(scan, -1) {
			if ts == nil {
				ts = parseTimestamp(scan, m, p.dayFirst)
			}
			for i := m[0]; i < m[1]; i++ {
				scan[i] = ' '
			}
		}
	}

	var tokens []numberToken
	for _, m := range numberPattern.FindAllIndex(scan, -1) {
		raw := string(scan[m[0]:m[1]])
		v, ok := parseNumber(raw)
		if !ok {
			continue
		}
		tokens = append(tokens, numberToken{value: v, offset: m[0], raw: raw})
	}
	return tokens, ts
}

func parseTimestamp(b []byte, m []int, dayFirst bool) *time.Time {
	group := func(i int) int {
		if m[2*i] < 0 {
			return 0
		}
		n, _ := strconv.Atoi(string(b[m[2*i]:m[2*i+1]]))
		return n
	}
	year, month, day := group(1), group(2), group(3)
	if dayFirst {
		day, year = group(1), group(3)
	}
	hour, minute, sec := group(4), group(5), group(6)
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	if t.Day() != day {
		return nil
	}
	return &t
}

// parseNumber interprets a token that may use '.' or ',' as the decimal
// separator and either as a thousands separator. A single comma followed by
// exactly three digits is a thousands separator; a single dot never is.
// Tokens that fit no reading (15.01.24) are rejected.
func parseNumber(raw string) (decimal.Decimal, bool) {
	sign := ""
	body := raw
	if strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+") {
		if body[0] == '-' {
			sign = "-"
		}
		body = body[1:]
	}

	var seps []int
	for i := 0; i < len(body); i++ {
		if body[i] == '.' || body[i] == ',' {
			seps = append(seps, i)
		}
	}
	if len(seps) == 0 {
		return decimal.Zero, false
	}

	last := seps[len(seps)-1]
	lastSep := body[last]
	tail := body[last+1:]

	var intPart, fracPart string
	switch {
	// grouped thousands never start with 0, so 0,500 is a decimal comma
	case len(seps) == 1 && lastSep == ',' && len(tail) == 3 && body[:last] != "0":
		intPart = body[:last] + tail
	case len(seps) == 1:
		intPart, fracPart = body[:last], tail
	default:
		grouped := body[:last]
		for i, s := range seps[:len(seps)-1] {
			if body[s] != body[seps[0]] {
				return decimal.Zero, false
			}
			next := last
			if i+1 < len(seps)-1 {
				next = seps[i+1]
			}
			if next-s-1 != 3 {
				return decimal.Zero, false
			}
		}
		digits := strings.NewReplacer(".", "", ",", "").Replace(grouped)
		if lastSep == body[seps[0]] {
			if len(tail) != 3 {
				return decimal.Zero, false
			}
			intPart = digits + tail
		} else {
			intPart, fracPart = digits, tail
		}
	}

	s := sign + intPart
	if fracPart != "" {
		s += "." + fracPart
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// roleCandidates records which roles a token could plausibly fill.
type roleCandidates struct {
	pnl   bool
	size  bool
	price bool
}

func classify(tok numberToken, maxLot decimal.Decimal) roleCandidates {
	return roleCandidates{
		pnl:   true,
		size:  tok.value.IsPositive() && tok.value.LessThan(maxLot),
		price: !tok.value.IsZero(),
	}
}

// locatePnL returns the index of the profit/loss token, or -1 when there are
// no tokens. For keyword rules it is the first token at or after the first
// occurrence of the highest-priority keyword present; otherwise, and as a
// fallback, the last token.
func locatePnL(text string, tokens []numberToken, strategy pnlStrategy, keywords []string) int {
	if len(tokens) == 0 {
		return -1
	}
	if strategy == pnlNearKeyword {
		lower := asciiLower(text)
		at := -1
		for _, k := range keywords {
			if i := strings.Index(lower, k); i >= 0 {
				at = i
				break
			}
		}
		if at >= 0 {
			for i, tok := range tokens {
				if tok.offset >= at {
					return i
				}
			}
		}
	}
	return len(tokens) - 1
}

// roleAssignment holds token indexes per role; -1 means unassigned.
type roleAssignment struct {
	pnl        int
	size       int
	entry      int
	stopLoss   int
	takeProfit int
}

// assignRoles applies the priority rules: PnL first, then the smallest
// plausible size, then the leftmost remaining token as entry, then up to
// protective further tokens as stop-loss and take-profit.
func assignRoles(tokens []numberToken, classes []roleCandidates, pnl int, protective int) roleAssignment {
	ra := roleAssignment{pnl: pnl, size: -1, entry: -1, stopLoss: -1, takeProfit: -1}

	for i, c := range classes {
		if i == pnl || !c.size {
			continue
		}
		if ra.size < 0 || tokens[i].value.LessThan(tokens[ra.size].value) {
			ra.size = i
		}
	}

	var rest []int
	for i := range tokens {
		if i != ra.pnl && i != ra.size {
			rest = append(rest, i)
		}
	}
	if len(rest) > 0 {
		ra.entry = rest[0]
		rest = rest[1:]
	}
	if protective > 0 && len(rest) > 0 {
		ra.stopLoss = rest[0]
		rest = rest[1:]
	}
	if protective > 1 && len(rest) > 0 {
		ra.takeProfit = rest[0]
	}
	return ra
}

// asciiLower lowercases byte by byte so offsets still match the raw record,
// invalid UTF-8 included.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
