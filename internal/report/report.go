// Package report turns an analyzed file into a persisted report.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dharsanguruparan/InsightDrop/internal/insight"
	"github.com/dharsanguruparan/InsightDrop/internal/model"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
)

// ErrPersistFailure is returned when the report could not be written.
var ErrPersistFailure = errors.New("persist failure")

// DefaultContentLimit caps the stored extracted text, in characters.
const DefaultContentLimit = 5000

// Draft is everything needed to build a report for one file.
type Draft struct {
	File    *model.UploadedFile
	UserID  string
	Title   string
	Text    string
	Insight model.Insight
}

type Assembler struct {
	reports      repository.ReportRepository
	contentLimit int
}

// NewAssembler returns an Assembler writing to reports. A non-positive limit
// means DefaultContentLimit.
func NewAssembler(reports repository.ReportRepository, contentLimit int) *Assembler {
	if contentLimit <= 0 {
		contentLimit = DefaultContentLimit
	}
	return &Assembler{reports: reports, contentLimit: contentLimit}
}

// Title is the default report title for a file name.
func Title(fileName string) string {
	return "Report for " + fileName
}

// Assemble writes the report with a single insert.
func (a *Assembler) Assemble(ctx context.Context, d Draft) (*model.Report, error) {
	if d.File == nil {
		return nil, fmt.Errorf("%w: missing file", ErrPersistFailure)
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = Title(d.File.Name)
	}
	rep := &model.Report{
		ProjectID:   d.File.ProjectID,
		FileID:      d.File.ID,
		Title:       title,
		Content:     insight.Excerpt(d.Text, a.contentLimit),
		Summary:     d.Insight.Summary,
		Insight:     d.Insight,
		GeneratedBy: d.UserID,
		Status:      model.ReportCompleted,
	}
	if err := a.reports.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistFailure, err)
	}
	return rep, nil
}
