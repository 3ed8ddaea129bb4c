// Package statement turns exported HTML account statements (MT4/MT5
// "Detailed Statement" and similar) into plain text blocks for inference.
package statement

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"trade-autopsy/internal/logger"
)

// Flatten renders every table row as one line of its cell texts. Documents
// without rows fall back to the body text.
func Flatten(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse statement: %w", err)
	}
	return flatten(doc.Selection), nil
}

// Fetch downloads a statement page served by a broker's web portal and
// flattens it the same way as a local export.
func Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	c := colly.NewCollector(
		colly.MaxDepth(1),
		colly.Async(false),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(timeout)

	var text string
	var found bool
	c.OnHTML("html", func(e *colly.HTMLElement) {
		text = flatten(e.DOM)
		found = true
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Statement fetch failed", err, "url", url, "status", r.StatusCode)
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("failed to visit %s: %w", url, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("fetch statement %s: %w", url, fetchErr)
	}
	if !found {
		return "", fmt.Errorf("fetch statement %s: no html document", url)
	}
	return text, nil
}

func flatten(root *goquery.Selection) string {
	root.Find("script, style").Remove()

	var lines []string
	root.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			if text := strings.Join(strings.Fields(cell.Text()), " "); text != "" {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, " "))
		}
	})

	if len(lines) == 0 {
		return bodyText(root)
	}

	// titles above the table often carry the platform name
	if title := strings.TrimSpace(root.Find("title").First().Text()); title != "" {
		lines = append([]string{title}, lines...)
	}
	return strings.Join(lines, "\n")
}

func bodyText(root *goquery.Selection) string {
	var lines []string
	root.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		for _, l := range strings.Split(s.Text(), "\n") {
			if l = strings.Join(strings.Fields(l), " "); l != "" {
				lines = append(lines, l)
			}
		}
	})
	return strings.Join(lines, "\n")
}
