// Package xlsx reads the first worksheet of an .xlsx workbook into rows
// of string cells. It decodes the workbook's zip/XML parts directly;
// only the subset needed for manifest spreadsheets is supported.
package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const (
	sharedStringsPart = "xl/sharedStrings.xml"
	worksheetPrefix   = "xl/worksheets/sheet"
)

// Rows parses every row of the workbook's first worksheet. Sparse cells
// are filled with empty strings so each row indexes by column position.
func Rows(data []byte) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	shared, err := readSharedStrings(zr)
	if err != nil {
		return nil, err
	}

	sheet, err := firstWorksheet(zr)
	if err != nil {
		return nil, err
	}
	return parseSheet(sheet, shared)
}

func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, name) {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open workbook part %s: %w", name, err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

func firstWorksheet(zr *zip.Reader) ([]byte, error) {
	var names []string
	for _, f := range zr.File {
		lower := strings.ToLower(f.Name)
		if strings.HasPrefix(lower, worksheetPrefix) && strings.HasSuffix(lower, ".xml") {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	sort.Strings(names)
	raw, err := readZipPart(zr, names[0])
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("workbook part %s missing", names[0])
	}
	return raw, nil
}

// readSharedStrings collects the workbook's shared string table. Rich
// text runs inside one entry are concatenated.
func readSharedStrings(zr *zip.Reader) ([]string, error) {
	raw, err := readZipPart(zr, sharedStringsPart)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		out    []string
		inSI   bool
		inText bool
		text   strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse shared strings: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inSI = true
				text.Reset()
			case "t":
				if inSI {
					inText = true
				}
			}
		case xml.CharData:
			if inSI && inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "si":
				if inSI {
					out = append(out, text.String())
				}
				inSI = false
			}
		}
	}
	return out, nil
}

func parseSheet(raw []byte, shared []string) ([][]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		rows     [][]string
		row      []string
		inCell   bool
		inValue  bool
		cellType string
		cellCol  int
		value    strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse worksheet: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				row = nil
			case "c":
				inCell = true
				cellType = ""
				cellCol = len(row)
				value.Reset()
				for _, a := range t.Attr {
					switch a.Name.Local {
					case "t":
						cellType = a.Value
					case "r":
						if idx, ok := columnIndex(a.Value); ok {
							cellCol = idx
						}
					}
				}
			case "v":
				if inCell {
					inValue = true
				}
			case "t":
				// inline strings carry their text in is>t
				if inCell && cellType == "inlineStr" {
					inValue = true
				}
			}
		case xml.CharData:
			if inCell && inValue {
				value.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				if inCell {
					row = padTo(row, cellCol+1)
					row[cellCol] = cellValue(cellType, value.String(), shared)
				}
				inCell = false
			case "row":
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

func cellValue(cellType, raw string, shared []string) string {
	if cellType == "s" {
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	}
	return raw
}

func padTo(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

// columnIndex converts a cell reference like "C7" to a 0-based column.
func columnIndex(ref string) (int, bool) {
	n := 0
	seen := false
	for _, r := range ref {
		if r >= 'A' && r <= 'Z' {
			n = n*26 + int(r-'A') + 1
			seen = true
			continue
		}
		if r >= 'a' && r <= 'z' {
			n = n*26 + int(r-'a') + 1
			seen = true
			continue
		}
		break
	}
	if !seen {
		return 0, false
	}
	return n - 1, true
}
