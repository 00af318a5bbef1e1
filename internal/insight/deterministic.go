package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

// exampleMetrics are reported when a document yields no metrics of its own,
// so an offline report still shows the shape of a full one.
var exampleMetrics = []model.Metric{
	{Kind: model.MetricPercentage, Value: "15%", Context: "Example: revenue grew 15% quarter over quarter"},
	{Kind: model.MetricCurrency, Value: "$250,000", Context: "Example: total contract value of $250,000"},
	{Kind: model.MetricDate, Value: "2023-12-15", Context: "Example: reporting period closed on 2023-12-15"},
	{Kind: model.MetricNumber, Value: "42", Context: "Example: 42 new clients onboarded"},
}

var (
	staticTrends = []string{
		"Key figures are reported for a single period; compare against earlier uploads to confirm direction.",
		"Recurring values suggest stable performance in the tracked areas.",
		"Percentages and currency amounts appear together, pointing to growth tracked against spend.",
	}
	staticActions = []string{
		"Review the highlighted metrics with the client and confirm the targets behind them.",
		"Upload the previous period's data to enable period over period comparison.",
		"Configure a remote summarizer for a narrative analysis of this document.",
	}
)

// DeterministicSummarizer builds insights locally from scanned metrics and
// text statistics. It never fails.
type DeterministicSummarizer struct{}

func NewDeterministicSummarizer() *DeterministicSummarizer {
	return &DeterministicSummarizer{}
}

func (d *DeterministicSummarizer) Insight(_ context.Context, text string, metrics []model.Metric) (model.Insight, error) {
	return d.Build(text, metrics), nil
}

// Build is Insight without the context or error.
func (d *DeterministicSummarizer) Build(text string, metrics []model.Metric) model.Insight {
	found := metrics
	if len(found) == 0 {
		found = exampleMetrics
	}
	return normalize(model.Insight{
		Summary: summarize(text, metrics),
		Metrics: append([]model.Metric(nil), found...),
		Trends:  append([]string(nil), staticTrends...),
		Actions: append([]string(nil), staticActions...),
		Source:  model.SourceDeterministic,
	})
}

func (d *DeterministicSummarizer) Answer(_ context.Context, _ string, question string) (string, error) {
	return fmt.Sprintf("Offline answer: no remote model is configured, so %q cannot be answered from the document automatically. "+
		"Review the summary and metrics in this report instead.", strings.TrimSpace(question)), nil
}

func summarize(text string, metrics []model.Metric) string {
	words := len(strings.Fields(text))
	if words == 0 {
		return "No readable content was found in this document."
	}
	lines := 0
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The document contains %d words across %d lines.", words, lines)
	if opening := openingSentence(text); opening != "" {
		fmt.Fprintf(&b, " It opens with: %q.", opening)
	}
	if len(metrics) == 0 {
		b.WriteString(" No metrics were detected; example metrics are shown for reference.")
		return b.String()
	}
	counts := map[model.MetricKind]int{}
	for _, m := range metrics {
		counts[m.Kind]++
	}
	fmt.Fprintf(&b, " Detected %d metrics: %d percentages, %d currency amounts, %d dates and %d numbers.",
		len(metrics), counts[model.MetricPercentage], counts[model.MetricCurrency], counts[model.MetricDate], counts[model.MetricNumber])
	return b.String()
}

func openingSentence(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	// A terminator only ends the sentence before a space or the end of text,
	// so decimals like 15.5 stay intact.
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(".!?", s[i]) >= 0 && (i+1 == len(s) || s[i+1] == ' ') {
			s = s[:i]
			break
		}
	}
	return Excerpt(s, 160)
}
