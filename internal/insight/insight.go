// Package insight turns normalized text and scanned metrics into an Insight,
// either through a remote language model or a deterministic local fallback.
package insight

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

// ErrRemoteUnavailable covers every remote failure: transport errors, non-2xx
// responses, empty or malformed payloads and timeouts.
var ErrRemoteUnavailable = errors.New("remote summarizer unavailable")

// Summarizer produces insights and answers questions about a document.
type Summarizer interface {
	Insight(ctx context.Context, text string, metrics []model.Metric) (model.Insight, error)
	Answer(ctx context.Context, text, question string) (string, error)
}

// Fixed questions asked of the remote model after the summary.
const (
	QuestionMetrics = "What are the main metrics and KPIs mentioned in this content?"
	QuestionTrends  = "What trends or patterns can you identify?"
	QuestionActions = "What recommendations or actions are suggested?"
)

// Excerpt returns at most limit characters of text, cut on a rune boundary.
func Excerpt(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}

// splitItems breaks a model answer into list entries, dropping bullet and
// numbering prefixes. An answer without line structure becomes one entry.
func splitItems(answer string) []string {
	var items []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = trimNumbering(line)
		if line != "" {
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		if a := strings.TrimSpace(answer); a != "" {
			return []string{a}
		}
		return []string{}
	}
	return items
}

func trimNumbering(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}

// normalize guarantees non-nil slices so encoded insights never carry nulls.
func normalize(in model.Insight) model.Insight {
	if in.Metrics == nil {
		in.Metrics = []model.Metric{}
	}
	if in.Trends == nil {
		in.Trends = []string{}
	}
	if in.Actions == nil {
		in.Actions = []string{}
	}
	return in
}
