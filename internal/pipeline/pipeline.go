// Package pipeline drives one upload from validation to a persisted report.
//
// Each call keeps its state in a run value that lives for that call only, so
// any number of uploads can be processed at once. The only shared state is the
// repositories and the blob store.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dharsanguruparan/InsightDrop/internal/extract"
	"github.com/dharsanguruparan/InsightDrop/internal/format"
	"github.com/dharsanguruparan/InsightDrop/internal/insight"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/report"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
	"github.com/dharsanguruparan/InsightDrop/internal/scan"
	"github.com/dharsanguruparan/InsightDrop/internal/storage"
	"github.com/dharsanguruparan/InsightDrop/internal/validation"
)

type Stage int

const (
	Validating Stage = iota
	Uploading
	RecordingFile
	ExtractingContent
	ScanningMetrics
	Aggregating
	AssemblingReport
	Done
	Failed
)

var stageNames = [...]string{
	Validating:        "validating",
	Uploading:         "uploading",
	RecordingFile:     "recording_file",
	ExtractingContent: "extracting_content",
	ScanningMetrics:   "scanning_metrics",
	Aggregating:       "aggregating",
	AssemblingReport:  "assembling_report",
	Done:              "done",
	Failed:            "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError reports the stage that was running when a run moved to Failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage recorded in err, if any.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return Failed, false
}

// Upload is one file submitted to a project.
type Upload struct {
	ProjectID   string
	UserID      string
	Name        string
	ContentType string
	// Title overrides the default report title when set.
	Title string
	Data  []byte
}

// Result is what a full run produced.
type Result struct {
	File    *model.UploadedFile
	Report  *model.Report
	Content *extract.Content
}

type Deps struct {
	Constraints validation.FileConstraints
	Blobs       storage.BlobStore
	Files       repository.FileRepository
	Aggregator  *insight.Aggregator
	Assembler   *report.Assembler
	// Now is used for object keys; defaults to time.Now.
	Now func() time.Time
}

type Pipeline struct {
	constraints validation.FileConstraints
	blobs       storage.BlobStore
	files       repository.FileRepository
	aggregator  *insight.Aggregator
	assembler   *report.Assembler
	now         func() time.Time
}

func New(d Deps) *Pipeline {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Aggregator == nil {
		d.Aggregator = insight.NewAggregator(nil)
	}
	return &Pipeline{
		constraints: d.Constraints,
		blobs:       d.Blobs,
		files:       d.Files,
		aggregator:  d.Aggregator,
		assembler:   d.Assembler,
		now:         d.Now,
	}
}

// run carries the state of one pipeline invocation.
type run struct {
	stage   Stage
	log     *slog.Logger
	file    *model.UploadedFile
	content *extract.Content
	metrics []model.Metric
	insight model.Insight
	report  *model.Report
	title   string
}

func (r *run) enter(s Stage) {
	r.stage = s
	r.log.Debug("pipeline stage", "stage", s.String())
}

func (r *run) fail(err error) error {
	failed := r.stage
	r.stage = Failed
	r.log.Warn("pipeline failed", "stage", failed.String(), "error", err)
	return &StageError{Stage: failed, Err: err}
}

// Run validates, stores, records and analyzes the upload synchronously.
func (p *Pipeline) Run(ctx context.Context, up Upload) (*Result, error) {
	file, err := p.Ingest(ctx, up)
	if err != nil {
		return nil, err
	}
	r := p.newRun(file)
	r.title = up.Title
	if err := p.analyze(ctx, r, up.Data, up.UserID); err != nil {
		return &Result{File: file}, err
	}
	return &Result{File: file, Report: r.report, Content: r.content}, nil
}

// Ingest covers Validating, Uploading and RecordingFile. Nothing is written
// when validation fails, and the stored object is removed again when the file
// row cannot be inserted.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (*model.UploadedFile, error) {
	r := &run{log: slog.With("project_id", up.ProjectID, "file_name", up.Name)}

	r.enter(Validating)
	size := int64(len(up.Data))
	if err := p.constraints.Validate(up.Name, up.ContentType, size); err != nil {
		return nil, r.fail(err)
	}

	r.enter(Uploading)
	key := storage.ObjectKey(up.UserID, up.ProjectID, up.Name, p.now())
	if err := p.blobs.Put(ctx, key, bytes.NewReader(up.Data), size, up.ContentType); err != nil {
		return nil, r.fail(fmt.Errorf("store object: %w", err))
	}

	r.enter(RecordingFile)
	file := &model.UploadedFile{
		ProjectID:   up.ProjectID,
		Name:        up.Name,
		ContentType: up.ContentType,
		Size:        size,
		ObjectKey:   key,
		UploadedBy:  up.UserID,
	}
	if err := p.files.Create(ctx, file); err != nil {
		if derr := p.blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			r.log.Error("remove orphaned object", "object_key", key, "error", derr)
		}
		return nil, r.fail(err)
	}
	r.log.Info("file stored", "file_id", file.ID, "size", size)
	return file, nil
}

// Analyze covers ExtractingContent through AssemblingReport for a file that
// was already ingested.
func (p *Pipeline) Analyze(ctx context.Context, file *model.UploadedFile, data []byte, userID string) (*model.Report, error) {
	r := p.newRun(file)
	if err := p.analyze(ctx, r, data, userID); err != nil {
		return nil, err
	}
	return r.report, nil
}

// AnalyzeStored loads the file record and its object before analyzing it.
// Background workers use it since they only receive ids.
func (p *Pipeline) AnalyzeStored(ctx context.Context, fileID, userID string) (*model.Report, error) {
	file, err := p.files.Get(ctx, fileID)
	if err != nil {
		return nil, &StageError{Stage: ExtractingContent, Err: err}
	}
	data, err := p.blobs.Get(ctx, file.ObjectKey)
	if err != nil {
		return nil, &StageError{Stage: ExtractingContent, Err: fmt.Errorf("load object: %w", err)}
	}
	return p.Analyze(ctx, file, data, userID)
}

func (p *Pipeline) newRun(file *model.UploadedFile) *run {
	return &run{
		file: file,
		log:  slog.With("project_id", file.ProjectID, "file_id", file.ID),
	}
}

func (p *Pipeline) analyze(ctx context.Context, r *run, data []byte, userID string) error {
	r.enter(ExtractingContent)
	kind, err := format.Classify(r.file.ContentType, r.file.Name)
	if err != nil {
		return r.fail(err)
	}
	content, err := extract.Extract(ctx, extract.Input{
		Format:      kind,
		Name:        r.file.Name,
		ContentType: r.file.ContentType,
		Data:        data,
	})
	if err != nil {
		return r.fail(err)
	}
	r.content = content

	r.enter(ScanningMetrics)
	r.metrics = scan.Scan(content.Text)
	r.log.Debug("metrics scanned", "by_kind", scan.CountByKind(r.metrics))

	r.enter(Aggregating)
	r.insight = p.aggregator.Build(ctx, content.Text, r.metrics)

	r.enter(AssemblingReport)
	rep, err := p.assembler.Assemble(ctx, report.Draft{
		File:    r.file,
		UserID:  userID,
		Title:   r.title,
		Text:    content.Text,
		Insight: r.insight,
	})
	if err != nil {
		return r.fail(err)
	}
	r.report = rep

	r.enter(Done)
	r.log.Info("report generated",
		"report_id", rep.ID,
		"format", kind.String(),
		"metrics", len(r.metrics),
		"source", string(r.insight.Source),
	)
	return nil
}
