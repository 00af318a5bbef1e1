// Package validation checks uploads against size and type constraints before
// anything is stored.
package validation

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrEmptyFile      = fmt.Errorf("%w: file is empty", ErrValidation)
	ErrTooLarge       = fmt.Errorf("%w: file too large", ErrValidation)
	ErrTypeNotAllowed = fmt.Errorf("%w: file type not allowed", ErrValidation)
)

// FileConstraints defines validation rules for uploads. A file passes the type
// check when either its declared media type or its extension is allowed.
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// NewFileConstraints builds constraints from configuration lists.
func NewFileConstraints(maxSize int64, mimeTypes, extensions []string) FileConstraints {
	c := FileConstraints{
		AllowedMimeTypes:  make(map[string]bool, len(mimeTypes)),
		AllowedExtensions: make(map[string]bool, len(extensions)),
		MaxSize:           maxSize,
	}
	for _, t := range mimeTypes {
		c.AllowedMimeTypes[strings.ToLower(strings.TrimSpace(t))] = true
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.AllowedExtensions[ext] = true
	}
	return c
}

// Validate checks size first, then type.
func (c FileConstraints) Validate(name, mediaType string, size int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > c.MaxSize {
		return fmt.Errorf("%w: maximum size is %s", ErrTooLarge, humanSize(c.MaxSize))
	}
	mt := mediaType
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mt = parsed
	}
	if c.AllowedMimeTypes[strings.ToLower(mt)] {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(name))
	if c.AllowedExtensions[ext] {
		return nil
	}
	return fmt.Errorf("%w: %q (%s); allowed extensions: %s", ErrTypeNotAllowed, name, mediaType, c.extensionList())
}

func (c FileConstraints) extensionList() string {
	exts := make([]string, 0, len(c.AllowedExtensions))
	for ext := range c.AllowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}

func humanSize(n int64) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	if n%(1<<10) == 0 {
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
