package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/InsightDrop/internal/processing"
	"github.com/dharsanguruparan/InsightDrop/internal/queue"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	analyzer processing.Analyzer
}

// NewProcessor constructs a worker processor.
func NewProcessor(analyzer processing.Analyzer) *Processor {
	return &Processor{analyzer: analyzer}
}

// Handler registers the report job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.GenerateReportTask, p.handleGenerate)
	return mux
}

func (p *Processor) handleGenerate(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.ParseGenerateReportPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
	}
	rep, err := p.analyzer.AnalyzeStored(ctx, payload.FileID, payload.UserID)
	if err != nil {
		slog.Error("report generation failed", "file_id", payload.FileID, "error", err)
		return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
	}
	slog.Info("report generated", "file_id", payload.FileID, "report_id", rep.ID)
	return nil
}
