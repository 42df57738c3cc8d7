package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeZipFile(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for entry, content := range entries {
		ew, err := w.Create(entry)
		require.NoError(t, err)
		_, err = ew.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestRegistrySupports(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Supports("report.pdf"))
	assert.True(t, r.Supports("notes.DOCX"))
	assert.True(t, r.Supports("data.csv"))
	assert.True(t, r.Supports("sheet.xlsx"))
	assert.True(t, r.Supports("legacy.xls"))
	assert.True(t, r.Supports("readme.txt"))
	assert.False(t, r.Supports("image.png"))
	assert.False(t, r.Supports("archive.zip"))
	assert.False(t, r.Supports("noextension"))
}

func TestExtractUnsupportedFormat(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract("photo.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractPlainText(t *testing.T) {
	path := writeTempFile(t, "notes.txt", "line one\nline two")
	text, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)
}

func TestExtractCSV(t *testing.T) {
	path := writeTempFile(t, "data.csv", "name,age\nalice,30\nbob,25\n")
	text, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "name, age\nalice, 30\nbob, 25\n", text)
}

func TestExtractCSVRaggedRows(t *testing.T) {
	path := writeTempFile(t, "ragged.csv", "a,b,c\nd\n")
	text, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "a, b, c\nd\n", text)
}

func TestExtractDOCX(t *testing.T) {
	document := `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>Hello </t></r><r><t>world</t></r></p>
    <p><r><t>Second paragraph</t></r></p>
  </body>
</document>`
	path := writeZipFile(t, "doc.docx", map[string]string{
		"word/document.xml":   document,
		"[Content_Types].xml": `<?xml version="1.0"?><Types/>`,
	})

	text, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond paragraph\n", text)
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	path := writeZipFile(t, "broken.docx", map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types/>`,
	})
	_, err := NewRegistry().Extract(path)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractDOCXCorruptArchive(t *testing.T) {
	path := writeTempFile(t, "corrupt.docx", "this is not a zip archive")
	_, err := NewRegistry().Extract(path)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractXLSX(t *testing.T) {
	shared := `<?xml version="1.0"?>
<sst><si><t>Name</t></si><si><t>Alice</t></si><si><r><t>Bo</t></r><r><t>b</t></r></si></sst>`
	sheet := `<?xml version="1.0"?>
<worksheet>
  <sheetData>
    <row><c t="s"><v>0</v></c><c><v>1</v></c></row>
    <row><c t="s"><v>1</v></c><c><v>30</v></c></row>
    <row><c t="s"><v>2</v></c><c><v>25</v></c></row>
  </sheetData>
</worksheet>`
	path := writeZipFile(t, "book.xlsx", map[string]string{
		"xl/sharedStrings.xml":     shared,
		"xl/worksheets/sheet1.xml": sheet,
	})

	text, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Name, 1\nAlice, 30\nBob, 25\n", text)
}

func TestExtractXLSXNoWorksheets(t *testing.T) {
	path := writeZipFile(t, "empty.xlsx", map[string]string{
		"xl/sharedStrings.xml": `<?xml version="1.0"?><sst/>`,
	})
	_, err := NewRegistry().Extract(path)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractLegacyXLSFails(t *testing.T) {
	// binary .xls is not a zip archive, so the xlsx strategy rejects it
	path := writeTempFile(t, "legacy.xls", "\xd0\xcf\x11\xe0old binary workbook")
	_, err := NewRegistry().Extract(path)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestExtractPDFCorrupt(t *testing.T) {
	path := writeTempFile(t, "broken.pdf", "not a pdf")
	_, err := NewRegistry().Extract(path)
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestRegisterOverride(t *testing.T) {
	r := NewRegistry()
	r.Register(".md", func(path string) (string, error) {
		return "custom", nil
	})

	require.True(t, r.Supports("readme.md"))
	text, err := r.Extract("readme.md")
	require.NoError(t, err)
	assert.Equal(t, "custom", text)
}
