// Package extract turns uploaded bytes into normalized text plus, for tabular
// formats, ordered row mappings.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharsanguruparan/InsightDrop/internal/format"
)

var (
	// ErrEmptyContent is returned when a text upload holds nothing but whitespace.
	ErrEmptyContent = errors.New("file has no content")
	// ErrParseFailure wraps the underlying parser error for malformed input.
	ErrParseFailure = errors.New("failed to parse file")
)

// Input is one file handed to Extract.
type Input struct {
	Format      format.Format
	Name        string
	ContentType string
	Data        []byte
}

// Content is the ephemeral result of an extraction. It is never persisted as
// its own entity.
type Content struct {
	Format format.Format
	Text   string
	Header []string
	Rows   []map[string]string
	// Placeholder is set when Text describes the file instead of holding text
	// read from it.
	Placeholder bool
	Pages       int
	Sheet       string
}

// Extract dispatches to the handler for in.Format.
func Extract(ctx context.Context, in Input) (*Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch in.Format {
	case format.CSV:
		return extractCSV(in.Data)
	case format.Excel:
		if format.IsSpreadsheetXLS(in.ContentType, in.Name) {
			return extractXLS(in.Data)
		}
		return extractXLSX(in.Data)
	case format.PDF:
		return extractPDF(in)
	case format.DOCX:
		return extractDOCX(in)
	case format.Text:
		return extractText(in.Data)
	case format.Unsupported:
		return nil, format.ErrUnsupportedFormat
	}
	return nil, fmt.Errorf("%w: %d", format.ErrUnsupportedFormat, in.Format)
}

func parseFailure(kind string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrParseFailure, kind, err)
}
