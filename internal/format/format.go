// Package format classifies uploads into the closed set of formats the
// extractors understand.
package format

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

// ErrUnsupportedFormat is returned when neither the media type nor the file
// name identifies a known format.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// Format is a closed enumeration of extractable file formats.
type Format int

const (
	Unsupported Format = iota
	CSV
	Excel
	PDF
	DOCX
	Text
)

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case Excel:
		return "excel"
	case PDF:
		return "pdf"
	case DOCX:
		return "docx"
	case Text:
		return "text"
	default:
		return "unsupported"
	}
}

type rule struct {
	format     Format
	mediaTypes []string
	extensions []string
}

// rules are evaluated in priority order. A format matches when the declared
// media type is one of its types or the name ends with one of its extensions.
var rules = []rule{
	{format: CSV, mediaTypes: []string{"text/csv", "application/csv"}, extensions: []string{".csv"}},
	{format: Excel, mediaTypes: []string{
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}, extensions: []string{".xls", ".xlsx"}},
	{format: PDF, mediaTypes: []string{"application/pdf"}, extensions: []string{".pdf"}},
	{format: DOCX, mediaTypes: []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}, extensions: []string{".docx"}},
	{format: Text, mediaTypes: []string{"text/plain"}, extensions: []string{".txt"}},
}

// Classify maps a declared media type and file name to a Format.
func Classify(mediaType, fileName string) (Format, error) {
	mt := normalizeMediaType(mediaType)
	name := strings.ToLower(strings.TrimSpace(fileName))
	for _, r := range rules {
		if r.matches(mt, name) {
			return r.format, nil
		}
	}
	return Unsupported, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, fileName, mediaType)
}

func (r rule) matches(mediaType, lowerName string) bool {
	for _, t := range r.mediaTypes {
		if mediaType == t {
			return true
		}
	}
	for _, ext := range r.extensions {
		if strings.HasSuffix(lowerName, ext) {
			return true
		}
	}
	return false
}

// normalizeMediaType drops parameters such as charset and lowercases the type.
func normalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// IsSpreadsheetXLS reports whether an Excel upload is the legacy BIFF format
// rather than Office Open XML.
func IsSpreadsheetXLS(mediaType, fileName string) bool {
	name := strings.ToLower(fileName)
	if strings.HasSuffix(name, ".xlsx") {
		return false
	}
	if strings.HasSuffix(name, ".xls") {
		return true
	}
	return normalizeMediaType(mediaType) == "application/vnd.ms-excel"
}
