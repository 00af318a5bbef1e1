// Package processing runs background analysis inside the API process with a
// fixed pool of goroutines. It is the Redis-free alternative to the asynq
// worker.
package processing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/queue"
)

// ErrQueueFull is returned by Dispatch when every slot in the buffer is taken.
var ErrQueueFull = errors.New("processing queue full")

// Analyzer is satisfied by *pipeline.Pipeline.
type Analyzer interface {
	AnalyzeStored(ctx context.Context, fileID, userID string) (*model.Report, error)
}

// Processor consumes jobs with a fixed number of workers.
type Processor struct {
	analyzer Analyzer
	queue    chan queue.GenerateReportPayload
	workers  int
	wg       sync.WaitGroup
	dropped  atomic.Int64
}

var _ queue.Dispatcher = (*Processor)(nil)

// New builds a Processor with queue capacity tied to worker count.
func New(analyzer Analyzer, workers int) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{
		analyzer: analyzer,
		queue:    make(chan queue.GenerateReportPayload, workers*4),
		workers:  workers,
	}
}

// Start launches the workers. They exit when ctx is cancelled.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

// Wait blocks until every worker has exited.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Dispatch queues a job without blocking.
func (p *Processor) Dispatch(_ context.Context, job queue.GenerateReportPayload) error {
	select {
	case p.queue <- job:
		return nil
	default:
		slog.Warn("processing queue full", "file_id", job.FileID)
		return ErrQueueFull
	}
}

func (p *Processor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case job := <-p.queue:
			if ctx.Err() != nil {
				p.drop(job)
				continue
			}
			p.process(ctx, job)
		}
	}
}

// drain empties the queue after shutdown. The files of dropped jobs stay
// stored without a report.
func (p *Processor) drain() {
	for {
		select {
		case job := <-p.queue:
			p.drop(job)
		default:
			return
		}
	}
}

func (p *Processor) drop(job queue.GenerateReportPayload) {
	p.dropped.Add(1)
	slog.Warn("background analysis dropped on shutdown", "file_id", job.FileID, "user_id", job.UserID)
}

func (p *Processor) process(ctx context.Context, job queue.GenerateReportPayload) {
	rep, err := p.analyzer.AnalyzeStored(ctx, job.FileID, job.UserID)
	if err != nil {
		slog.Error("background analysis failed", "file_id", job.FileID, "error", err)
		return
	}
	slog.Info("background analysis finished", "file_id", job.FileID, "report_id", rep.ID)
}
