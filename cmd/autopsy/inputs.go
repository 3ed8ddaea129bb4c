package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"trade-autopsy/internal/interfaces"
	"trade-autopsy/internal/logger"
	"trade-autopsy/internal/statement"
)

const statementFetchTimeout = 30 * time.Second

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// loadBlocks turns every input into one text block, keeping argument order.
// "-" reads stdin and http(s) URLs are fetched as web statements. HTML goes
// through the statement reader, images through the OCR extractor, everything
// else is taken as already-extracted text.
func loadBlocks(ctx context.Context, paths []string, stdin io.Reader, extractor interfaces.TextExtractor) ([]string, error) {
	blocks := make([]string, 0, len(paths))
	for _, p := range paths {
		timer := logger.StartOperation(ctx, "autopsy.loadBlock", "source", p)
		text, err := loadBlock(timer.GetContext(), p, stdin, extractor)
		if err != nil {
			timer.EndWithError(err)
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		timer.End("chars", len(text))
		blocks = append(blocks, text)
	}
	return blocks, nil
}

func loadBlock(ctx context.Context, path string, stdin io.Reader, extractor interfaces.TextExtractor) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return statement.Fetch(ctx, path, statementFetchTimeout)
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".html" || ext == ".htm":
		return statement.Flatten(bytes.NewReader(data))
	case imageTypes[ext] != "":
		if extractor == nil {
			return "", fmt.Errorf("no OCR extractor for image input")
		}
		return extractor.ExtractText(ctx, data, imageTypes[ext])
	default:
		return string(data), nil
	}
}
