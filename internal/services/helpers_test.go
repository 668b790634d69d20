package services

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/plcworks/plchub-backend/internal/config"
	"github.com/plcworks/plchub-backend/internal/platform/logger"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(testLog(t))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func buildTestZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// ladderCSV produces content matching the default ladder profile:
// two preamble lines, the header at row index 2, then data rows.
func ladderCSV(dataRows int) string {
	var sb strings.Builder
	sb.WriteString("EXPORT,v1\n")
	sb.WriteString("MODULE,CPU01\n")
	sb.WriteString("Step,Instruction,Device\n")
	for i := 0; i < dataRows; i++ {
		sb.WriteString("1,LD,X0\n")
	}
	return sb.String()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// buildManifest produces a minimal workbook whose first row is the
// header and the rest the given rows, all as inline strings.
func buildManifest(t *testing.T, header []string, rows [][]string) []byte {
	t.Helper()
	var sheet strings.Builder
	sheet.WriteString(`<?xml version="1.0"?><worksheet><sheetData>`)
	writeRow := func(cells []string) {
		sheet.WriteString("<row>")
		for _, cell := range cells {
			sheet.WriteString(`<c t="inlineStr"><is><t>`)
			sheet.WriteString(xmlEscape(cell))
			sheet.WriteString(`</t></is></c>`)
		}
		sheet.WriteString("</row>")
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	sheet.WriteString(`</sheetData></worksheet>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := map[string]string{
		"[Content_Types].xml":      `<?xml version="1.0"?><Types/>`,
		"xl/workbook.xml":          `<?xml version="1.0"?><workbook/>`,
		"xl/worksheets/sheet1.xml": sheet.String(),
	}
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("workbook create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("workbook write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("workbook close: %v", err)
	}
	return buf.Bytes()
}

var manifestHeader = []string{"PGM ID", "Folder ID", "Folder Name", "Sub Folder Name", "Logic ID", "Logic Name"}
