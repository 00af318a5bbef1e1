// Package scan finds typed metric occurrences in normalized text.
package scan

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

const (
	// MaxPerKind caps how many occurrences of each kind are reported.
	MaxPerKind = 10
	// ContextRadius is the number of characters kept on each side of a match.
	ContextRadius = 30
)

var (
	percentRe  = regexp.MustCompile(`\d+(?:\.\d+)?[ \t]*%`)
	currencyRe = regexp.MustCompile(`[$\x{20AC}\x{00A3}]\d+(?:[.,]\d+)*`)
	dateRe     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	numberRe   = regexp.MustCompile(`\d+(?:[.,]\d+)*`)
)

type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Scan runs the percentage, currency, date and number rules in that order
// and returns the matches sorted by their position in text. A plain number
// is any digit run, including one inside a word such as FY2024, and is
// skipped when it lies inside an earlier match or is followed by '%'.
func Scan(text string) []model.Metric {
	var (
		out   []model.Metric
		taken []span
	)
	collect := func(kind model.MetricKind, re *regexp.Regexp, keep func(span) bool) {
		var found []span
		for _, loc := range re.FindAllStringIndex(text, -1) {
			s := span{loc[0], loc[1]}
			if keep != nil && !keep(s) {
				continue
			}
			found = append(found, s)
		}
		// Matches past the cap still shadow later rules.
		taken = append(taken, found...)
		for i, s := range found {
			if i == MaxPerKind {
				break
			}
			out = append(out, model.Metric{
				Kind:    kind,
				Value:   text[s.start:s.end],
				Context: snippet(text, s),
				Offset:  s.start,
			})
		}
	}

	collect(model.MetricPercentage, percentRe, nil)
	collect(model.MetricCurrency, currencyRe, nil)
	collect(model.MetricDate, dateRe, nil)
	collect(model.MetricNumber, numberRe, func(s span) bool {
		for _, t := range taken {
			if s.overlaps(t) {
				return false
			}
		}
		return !strings.HasPrefix(strings.TrimLeft(text[s.end:], " \t"), "%")
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// snippet returns up to ContextRadius runes either side of s with whitespace
// runs collapsed.
func snippet(text string, s span) string {
	start := s.start
	for i := 0; i < ContextRadius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := s.end
	for i := 0; i < ContextRadius && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return strings.Join(strings.Fields(text[start:end]), " ")
}

// CountByKind tallies metrics per kind.
func CountByKind(metrics []model.Metric) map[model.MetricKind]int {
	counts := make(map[model.MetricKind]int, 4)
	for _, m := range metrics {
		counts[m.Kind]++
	}
	return counts
}
