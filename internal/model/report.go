package model

import "time"

// ReportStatus is always "completed" for persisted reports; reports are only
// written after a finished analysis.
type ReportStatus string

const ReportCompleted ReportStatus = "completed"

// Report is the persisted result of analyzing one uploaded file.
type Report struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"projectId"`
	FileID      string       `json:"fileId"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Summary     string       `json:"summary"`
	Insight     Insight      `json:"insight"`
	GeneratedBy string       `json:"generatedBy"`
	Status      ReportStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
}
