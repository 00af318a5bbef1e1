// Package export renders persisted reports as downloadable documents.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/dharsanguruparan/InsightDrop/internal/model"
)

const (
	lineHeight = 6.0
	pageWidth  = 0 // full width between margins
)

// WriteReportPDF renders the report title, metadata, summary, metrics, trends
// and actions as a PDF.
func WriteReportPDF(w io.Writer, r *model.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("InsightDrop", true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(pageWidth, 9, tr(r.Title), "", "L", false)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	meta := fmt.Sprintf("Generated %s | Source: %s | Status: %s",
		r.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), sourceLabel(r.Insight.Source), r.Status)
	pdf.MultiCell(pageWidth, 5, tr(meta), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	section(pdf, tr, "Summary")
	paragraph(pdf, tr, fallback(r.Summary, "No summary available."))

	section(pdf, tr, "Key metrics")
	if len(r.Insight.Metrics) == 0 {
		paragraph(pdf, tr, "No metrics were found.")
	} else {
		metricsTable(pdf, tr, r.Insight.Metrics)
	}
	if r.Insight.MetricsNarrative != "" {
		paragraph(pdf, tr, r.Insight.MetricsNarrative)
	}

	section(pdf, tr, "Trends")
	bullets(pdf, tr, r.Insight.Trends, "No trends identified.")

	section(pdf, tr, "Recommended actions")
	bullets(pdf, tr, r.Insight.Actions, "No actions suggested.")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report pdf: %w", err)
	}
	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(pageWidth, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func paragraph(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(pageWidth, lineHeight, tr(text), "", "L", false)
	pdf.Ln(1)
}

func bullets(pdf *fpdf.Fpdf, tr func(string) string, items []string, empty string) {
	if len(items) == 0 {
		paragraph(pdf, tr, empty)
		return
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, item := range items {
		pdf.MultiCell(pageWidth, lineHeight, tr("- "+item), "", "L", false)
	}
	pdf.Ln(1)
}

func metricsTable(pdf *fpdf.Fpdf, tr func(string) string, metrics []model.Metric) {
	widths := []float64{28, 34, 112}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range []string{"Kind", "Value", "Context"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, m := range metrics {
		pdf.CellFormat(widths[0], 6, tr(string(m.Kind)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(m.Value), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, tr(clip(m.Context, 70)), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
}

func sourceLabel(s model.InsightSource) string {
	if s == model.SourceRemote {
		return "AI model"
	}
	return "offline analysis"
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
