package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dharsanguruparan/InsightDrop/internal/format"
)

func TestExtractCSV(t *testing.T) {
	c, err := Extract(context.Background(), Input{Format: format.CSV, Name: "t.csv", Data: []byte("a,b\n1,2\n")})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, c.Header)
	require.Len(t, c.Rows, 1)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, c.Rows[0])
	assert.Contains(t, c.Text, "a, b\n")
	assert.Contains(t, c.Text, "1, 2\n")
	assert.False(t, c.Placeholder)
}

func TestExtractCSVShortRowsAndBlankLines(t *testing.T) {
	data := []byte("\ufeffregion,revenue,growth\nnorth,100,5%\n\nsouth,90\n")
	c, err := Extract(context.Background(), Input{Format: format.CSV, Data: data})
	require.NoError(t, err)

	require.Len(t, c.Rows, 2)
	assert.Equal(t, "region", c.Header[0])
	assert.Equal(t, map[string]string{"region": "south", "revenue": "90"}, c.Rows[1])
	assert.Equal(t, "region, revenue, growth\nnorth, 100, 5%\nsouth, 90\n", c.Text)
}

func TestExtractCSVMalformed(t *testing.T) {
	_, err := Extract(context.Background(), Input{Format: format.CSV, Data: []byte("a,b\n1,\"x\"y\n")})
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestExtractCSVEmpty(t *testing.T) {
	_, err := Extract(context.Background(), Input{Format: format.CSV, Data: nil})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestExtractXLSXFirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"month", "sales", "note"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"jan", 1200, ""}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"feb", 1500, "promo"}))
	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "should not appear"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	c, err := Extract(context.Background(), Input{
		Format:      format.Excel,
		Name:        "sales.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", c.Sheet)
	assert.Equal(t, []string{"month", "sales", "note"}, c.Header)
	require.Len(t, c.Rows, 2)
	assert.Equal(t, map[string]string{"month": "jan", "sales": "1200"}, c.Rows[0])
	assert.Equal(t, "promo", c.Rows[1]["note"])
	assert.Equal(t, "month, sales, note\njan, 1200\nfeb, 1500, promo\n", c.Text)
	assert.NotContains(t, c.Text, "should not appear")
}

func TestExtractXLSFirstSheetOnly(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "regions.xls"))
	require.NoError(t, err)

	c, err := Extract(context.Background(), Input{
		Format:      format.Excel,
		Name:        "regions.xls",
		ContentType: "application/vnd.ms-excel",
		Data:        data,
	})
	require.NoError(t, err)

	assert.Equal(t, "Regions", c.Sheet)
	assert.Equal(t, []string{"region", "revenue", "note"}, c.Header)
	require.Len(t, c.Rows, 2)
	assert.Equal(t, map[string]string{"region": "north", "revenue": "100"}, c.Rows[0])
	assert.Equal(t, map[string]string{"region": "south", "revenue": "90.5", "note": "promo"}, c.Rows[1])
	assert.Equal(t, "region, revenue, note\nnorth, 100\nsouth, 90.5, promo\n", c.Text)
	assert.NotContains(t, c.Text, "should not appear")
}

func TestExtractExcelMalformed(t *testing.T) {
	for _, name := range []string{"broken.xlsx", "broken.xls"} {
		_, err := Extract(context.Background(), Input{Format: format.Excel, Name: name, Data: []byte("not a workbook")})
		assert.ErrorIs(t, err, ErrParseFailure, name)
	}
}

func TestExtractText(t *testing.T) {
	c, err := Extract(context.Background(), Input{Format: format.Text, Data: []byte("  keep  me verbatim\n")})
	require.NoError(t, err)
	assert.Equal(t, "  keep  me verbatim\n", c.Text)

	for _, blank := range []string{"", "   ", "\n\t\n"} {
		_, err := Extract(context.Background(), Input{Format: format.Text, Data: []byte(blank)})
		assert.ErrorIs(t, err, ErrEmptyContent)
	}
}

func TestExtractDOCX(t *testing.T) {
	const body = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Revenue grew 15%</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>paragraph</w:t></w:r></w:p>
</w:body>
</w:document>`
	data := zipped(t, map[string]string{"word/document.xml": body})

	c, err := Extract(context.Background(), Input{Format: format.DOCX, Name: "memo.docx", Data: data})
	require.NoError(t, err)
	assert.False(t, c.Placeholder)
	assert.Equal(t, "Revenue grew 15%\nSecond\tparagraph\n", c.Text)
}

func TestExtractDOCXWithoutText(t *testing.T) {
	data := zipped(t, map[string]string{"word/document.xml": `<w:document xmlns:w="x"><w:body><w:p/></w:body></w:document>`})

	c, err := Extract(context.Background(), Input{Format: format.DOCX, Name: "blank.docx", ContentType: "application/octet-stream", Data: data})
	require.NoError(t, err)
	assert.True(t, c.Placeholder)
	assert.Contains(t, c.Text, "blank.docx")
	assert.Contains(t, c.Text, "DOCX")
}

func TestExtractDOCXMalformed(t *testing.T) {
	_, err := Extract(context.Background(), Input{Format: format.DOCX, Data: []byte("plain bytes")})
	assert.ErrorIs(t, err, ErrParseFailure)

	_, err = Extract(context.Background(), Input{Format: format.DOCX, Data: zipped(t, map[string]string{"other.xml": "<a/>"})})
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestExtractPDFMalformed(t *testing.T) {
	_, err := Extract(context.Background(), Input{Format: format.PDF, Name: "x.pdf", Data: []byte("%PDF-1.4 garbage")})
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestExtractPDFWithoutTextLayer(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.AddPage()
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	c, err := Extract(context.Background(), Input{Format: format.PDF, Name: "scan.pdf", ContentType: "application/pdf", Data: buf.Bytes()})
	require.NoError(t, err)
	assert.True(t, c.Placeholder)
	assert.Equal(t, 1, c.Pages)
	assert.Contains(t, c.Text, "scan.pdf")
	assert.Contains(t, c.Text, "application/pdf")
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract(context.Background(), Input{Format: format.Unsupported})
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestExtractHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Extract(ctx, Input{Format: format.Text, Data: []byte("x")})
	assert.ErrorIs(t, err, context.Canceled)
}

func zipped(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
