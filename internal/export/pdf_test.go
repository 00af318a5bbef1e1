package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

func TestWriteReportPDF(t *testing.T) {
	r := &model.Report{
		Title:     "Report for q4.csv",
		Summary:   "Revenue grew 15% to €250,000.",
		Status:    model.ReportCompleted,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Insight: model.Insight{
			Metrics: []model.Metric{{Kind: model.MetricPercentage, Value: "15%", Context: "Revenue grew 15% to"}},
			Trends:  []string{"Revenue is growing"},
			Actions: []string{"Hire two engineers"},
			Source:  model.SourceDeterministic,
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReportPDF(&buf, r))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestWriteReportPDFEmptyInsight(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportPDF(&buf, &model.Report{Title: "Empty"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "ab...", clip("abcdefgh", 5))
}
