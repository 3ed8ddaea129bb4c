package inference

import (
	"regexp"
	"strings"
)

// tableReplacer blanks out pipes, box-drawing glyphs and currency symbols that
// OCR leaves around table cells.
var tableReplacer = strings.NewReplacer(
	"|", " ", "¦", " ", "│", " ", "┃", " ", "║", " ",
	"─", " ", "━", " ", "═", " ",
	"┌", " ", "┐", " ", "└", " ", "┘", " ",
	"├", " ", "┤", " ", "┬", " ", "┴", " ", "┼", " ",
	"╔", " ", "╗", " ", "╚", " ", "╝", " ", "╠", " ", "╣", " ", "╦", " ", "╩", " ", "╬", " ",
	"\t", " ", "\u00a0", " ",
	"\u2212", "-", "\u2013", "-",
	"$", "", "€", "", "£", "", "¥", "",
)

// accountingNegative matches "(25.00)" style losses.
var accountingNegative = regexp.MustCompile(`\((\d+(?:[.,]\d+)+)\)`)

// normalize returns the non-empty lines of text with table artifacts removed
// and whitespace collapsed. Line numbers are 1-based positions in the input.
func normalize(text string) []sourceLine {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := make([]sourceLine, 0, len(raw))
	for i, l := range raw {
		l = tableReplacer.Replace(l)
		l = accountingNegative.ReplaceAllString(l, "-$1")
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			continue
		}
		lines = append(lines, sourceLine{number: i + 1, text: l})
	}
	return lines
}

type sourceLine struct {
	number int
	text   string
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
