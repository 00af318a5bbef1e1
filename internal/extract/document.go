package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/dharsanguruparan/InsightDrop/internal/format"
)

func extractPDF(in Input) (c *Content, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, parseFailure("pdf", fmt.Errorf("%v", r))
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(in.Data), int64(len(in.Data)))
	if err != nil {
		return nil, parseFailure("pdf", err)
	}
	var b strings.Builder
	total := doc.NumPage()
	for i := 1; i <= total; i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, parseFailure("pdf", fmt.Errorf("page %d: %w", i, err))
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		c = placeholder(in)
		c.Pages = total
		return c, nil
	}
	return &Content{Format: format.PDF, Text: text, Pages: total}, nil
}

const docxBody = "word/document.xml"

func extractDOCX(in Input) (*Content, error) {
	zr, err := zip.NewReader(bytes.NewReader(in.Data), int64(len(in.Data)))
	if err != nil {
		return nil, parseFailure("docx", err)
	}
	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, parseFailure("docx", err)
		}
		text, err := docxText(rc)
		rc.Close()
		if err != nil {
			return nil, parseFailure("docx", err)
		}
		if strings.TrimSpace(text) == "" {
			return placeholder(in), nil
		}
		return &Content{Format: format.DOCX, Text: text}, nil
	}
	return nil, parseFailure("docx", fmt.Errorf("missing %s", docxBody))
}

// docxText walks WordprocessingML tokens. Runs of <w:t> are concatenated, each
// </w:p> ends a line.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		b      strings.Builder
		line   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteString("\t")
			case "br", "cr":
				line.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(line.String()); s != "" {
					b.WriteString(s)
					b.WriteString("\n")
				}
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	return b.String(), nil
}

// placeholder describes a document whose text layer could not be read.
func placeholder(in Input) *Content {
	label := strings.ToUpper(in.Format.String())
	text := fmt.Sprintf(
		"[no extractable text] %s document %q (%.1f KB, %s). The file was stored but no text could be read from it.",
		label, in.Name, float64(len(in.Data))/1024, in.ContentType,
	)
	return &Content{Format: in.Format, Text: text, Placeholder: true}
}
