package insight

import (
	"context"
	"log/slog"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

// Aggregator produces insights with the summarizer chosen at startup and
// recovers every failure of it through the deterministic fallback.
type Aggregator struct {
	primary  Summarizer
	fallback *DeterministicSummarizer
}

// NewAggregator wraps primary. A nil primary means offline operation.
func NewAggregator(primary Summarizer) *Aggregator {
	fallback := NewDeterministicSummarizer()
	if primary == nil {
		primary = fallback
	}
	return &Aggregator{primary: primary, fallback: fallback}
}

// Remote reports whether the primary summarizer is not the local fallback.
func (a *Aggregator) Remote() bool {
	_, local := a.primary.(*DeterministicSummarizer)
	return !local
}

// Build never returns an error.
func (a *Aggregator) Build(ctx context.Context, text string, metrics []model.Metric) model.Insight {
	in, err := a.primary.Insight(ctx, text, metrics)
	if err == nil {
		return normalize(in)
	}
	slog.Warn("summarizer failed, using deterministic insight", "error", err)
	return a.fallback.Build(text, metrics)
}

// Answer responds to a question about text, falling back the same way Build
// does. The source tells which summarizer produced the answer.
func (a *Aggregator) Answer(ctx context.Context, text, question string) (string, model.InsightSource) {
	answer, err := a.primary.Answer(ctx, text, question)
	if err == nil {
		if a.Remote() {
			return answer, model.SourceRemote
		}
		return answer, model.SourceDeterministic
	}
	slog.Warn("summarizer answer failed, using offline answer", "error", err)
	answer, _ = a.fallback.Answer(ctx, text, question)
	return answer, model.SourceDeterministic
}
