package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/dharsanguruparan/InsightDrop/internal/format"
)

func extractText(data []byte) (*Content, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}
	return &Content{Format: format.Text, Text: text}, nil
}
