package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	c := NewFileConstraints(10<<20,
		[]string{"text/plain", "text/csv", "application/pdf"},
		[]string{".txt", ".csv", "pdf", ".xls", ".xlsx"},
	)

	tests := []struct {
		name      string
		file      string
		mediaType string
		size      int64
		wantErr   error
	}{
		{"txt", "notes.txt", "text/plain", 12, nil},
		{"type with params", "notes", "text/plain; charset=utf-8", 12, nil},
		{"extension only", "book.XLSX", "application/octet-stream", 2048, nil},
		{"extension without dot in config", "a.pdf", "", 1, nil},
		{"exactly max", "big.csv", "text/csv", 10 << 20, nil},
		{"oversized", "big.csv", "text/csv", 10<<20 + 1, ErrTooLarge},
		{"empty", "empty.txt", "text/plain", 0, ErrEmptyFile},
		{"wrong type", "setup.exe", "application/x-msdownload", 100, ErrTypeNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.file, tt.mediaType, tt.size)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateRestrictedVariant(t *testing.T) {
	c := NewFileConstraints(10<<20, nil, []string{".txt", ".csv"})
	assert.NoError(t, c.Validate("a.csv", "", 10))
	err := c.Validate("a.pdf", "application/pdf", 10)
	assert.ErrorIs(t, err, ErrTypeNotAllowed)
	assert.Contains(t, err.Error(), ".csv, .txt")
}

func TestTooLargeMessage(t *testing.T) {
	c := NewFileConstraints(10<<20, nil, []string{".txt"})
	err := c.Validate("a.txt", "text/plain", 11<<20)
	assert.Contains(t, err.Error(), "maximum size is 10 MB")
}
