package extract

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// extractPDF reads the whole file and extracts the plain text of every
// page. PDFs without extractable text (scans, encrypted files) fail.
func extractPDF(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", errors.New("empty pdf file")
	}

	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", errors.New("pdf contains no extractable text")
	}
	return string(out), nil
}
