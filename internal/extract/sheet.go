package extract

import (
	"archive/zip"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// extractCSV joins cell values row by row, one line per record.
func extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var b strings.Builder
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		b.WriteString(strings.Join(record, ", "))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// sharedStrings mirrors xl/sharedStrings.xml.
type sharedStrings struct {
	Items []struct {
		Text string   `xml:"t"`
		Runs []string `xml:"r>t"`
	} `xml:"si"`
}

// worksheet mirrors the cell layout of xl/worksheets/sheetN.xml.
type worksheet struct {
	Rows []struct {
		Cells []struct {
			Type  string `xml:"t,attr"`
			Value string `xml:"v"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// extractXLSX reads an OOXML workbook: shared strings first, then every
// worksheet, joining cells per row. Legacy binary .xls files are not
// zip archives and fail here, surfacing as an extraction failure.
func extractXLSX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer archive.Close()

	var shared []string
	for _, file := range archive.File {
		if file.Name != "xl/sharedStrings.xml" {
			continue
		}
		raw, err := readZipFile(file)
		if err != nil {
			return "", err
		}
		var ss sharedStrings
		if err := xml.Unmarshal(raw, &ss); err != nil {
			return "", err
		}
		for _, item := range ss.Items {
			if item.Text != "" {
				shared = append(shared, item.Text)
				continue
			}
			shared = append(shared, strings.Join(item.Runs, ""))
		}
	}

	var b strings.Builder
	found := false
	for _, file := range archive.File {
		if !strings.HasPrefix(file.Name, "xl/worksheets/") || !strings.HasSuffix(file.Name, ".xml") {
			continue
		}
		found = true
		raw, err := readZipFile(file)
		if err != nil {
			return "", err
		}
		var sheet worksheet
		if err := xml.Unmarshal(raw, &sheet); err != nil {
			return "", err
		}
		for _, row := range sheet.Rows {
			values := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				value := cell.Value
				if cell.Type == "s" {
					idx, err := strconv.Atoi(cell.Value)
					if err == nil && idx >= 0 && idx < len(shared) {
						value = shared[idx]
					}
				}
				if value != "" {
					values = append(values, value)
				}
			}
			if len(values) > 0 {
				b.WriteString(strings.Join(values, ", "))
				b.WriteByte('\n')
			}
		}
	}
	if !found {
		return "", errors.New("no worksheets found in archive")
	}
	return b.String(), nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
