package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/dharsanguruparan/InsightDrop/internal/format"
)

// Normalized tabular text is the header joined by fieldSeparator on the first
// line, followed by one line per row.
const fieldSeparator = ", "

func extractCSV(data []byte) (*Content, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseFailure("csv", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmptyContent
	}
	c := fromTable(records, true)
	c.Format = format.CSV
	return c, nil
}

func extractXLSX(data []byte) (*Content, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, parseFailure("xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyContent
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, parseFailure("xlsx", err)
	}
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, ErrEmptyContent
	}
	c := fromTable(rows, false)
	c.Format = format.Excel
	c.Sheet = sheets[0]
	return c, nil
}

func extractXLS(data []byte) (c *Content, err error) {
	// The BIFF reader panics on some truncated workbooks.
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, parseFailure("xls", fmt.Errorf("%v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, parseFailure("xls", err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyContent
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyContent
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for col := row.FirstCol(); col < row.LastCol(); col++ {
			cells[col] = row.Col(col)
		}
		rows = append(rows, cells)
	}
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, ErrEmptyContent
	}
	c = fromTable(rows, false)
	c.Format = format.Excel
	c.Sheet = sheet.Name
	return c, nil
}

// fromTable treats the first record as the header. Spreadsheet rows omit empty
// cells from their mapping; CSV rows keep them.
func fromTable(records [][]string, keepEmpty bool) *Content {
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = columnName(i, h)
	}

	var text strings.Builder
	text.WriteString(strings.Join(header, fieldSeparator))
	text.WriteString("\n")

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		values := make([]string, 0, len(header))
		for i, v := range rec {
			if i >= len(header) {
				break
			}
			if v == "" && !keepEmpty {
				continue
			}
			row[header[i]] = v
			values = append(values, v)
		}
		rows = append(rows, row)
		text.WriteString(strings.Join(values, fieldSeparator))
		text.WriteString("\n")
	}

	return &Content{
		Text:   text.String(),
		Header: header,
		Rows:   rows,
	}
}

func columnName(i int, h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return fmt.Sprintf("column_%d", i+1)
	}
	return h
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		for _, v := range r {
			if strings.TrimSpace(v) != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
