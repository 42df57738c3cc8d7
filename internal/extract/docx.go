package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// wordDocument mirrors the paragraph/run structure of word/document.xml.
type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

// extractDOCX opens the file as an OOXML zip archive and concatenates
// the paragraph text of word/document.xml.
func extractDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	for _, file := range archive.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}

		var doc wordDocument
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return "", err
		}

		var b strings.Builder
		for _, p := range doc.Body.Paragraphs {
			for _, run := range p.Runs {
				b.WriteString(run.Text)
			}
			b.WriteByte('\n')
		}
		return b.String(), nil
	}
	return "", errors.New("word/document.xml not found in archive")
}
