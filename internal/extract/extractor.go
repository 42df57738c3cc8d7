// Package extract converts uploaded files into plain text. Strategies
// are keyed by file extension in a registry, so new formats plug in
// without touching dispatch logic.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("text extraction failed")
)

// Strategy reads the file at path and returns its textual content.
type Strategy func(path string) (string, error)

// Registry maps a lowercase extension (without dot) to its Strategy.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns a registry with the built-in strategies for
// pdf, docx, txt, csv, xls and xlsx.
func NewRegistry() *Registry {
	r := &Registry{strategies: make(map[string]Strategy)}
	r.Register("pdf", extractPDF)
	r.Register("docx", extractDOCX)
	r.Register("txt", extractPlainText)
	r.Register("csv", extractCSV)
	r.Register("xlsx", extractXLSX)
	r.Register("xls", extractXLSX)
	return r
}

// Register binds ext to strategy, replacing any existing binding.
func (r *Registry) Register(ext string, strategy Strategy) {
	r.strategies[strings.ToLower(strings.TrimPrefix(ext, "."))] = strategy
}

// Supports reports whether a strategy exists for the file's extension.
func (r *Registry) Supports(fileName string) bool {
	_, ok := r.strategies[extOf(fileName)]
	return ok
}

// Extract selects the strategy for the file's extension and runs it.
// Returns ErrUnsupportedFormat for unknown extensions and wraps any
// strategy failure in ErrExtractionFailed.
func (r *Registry) Extract(path string) (string, error) {
	ext := extOf(path)
	strategy, ok := r.strategies[ext]
	if !ok {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	text, err := strategy(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return text, nil
}

func extOf(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}
