package analysis

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type xlsxWorkbook struct {
	Sheets []struct {
		Name    string `xml:"name,attr"`
		SheetID int    `xml:"sheetId,attr"`
		RID     string `xml:"id,attr"`
	} `xml:"sheets>sheet"`
}

type xlsxRelationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xlsxSharedStrings struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// openSheet resolves the requested worksheet and returns a row reader over it.
// sheetIndex is 1-based and only consulted when sheetName is empty.
func openSheet(p string, sheetName string, sheetIndex int) (*sheetRowReader, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	var wb xlsxWorkbook
	if data := readZipFile(zr, "xl/workbook.xml"); len(data) > 0 {
		if err := xml.Unmarshal(data, &wb); err != nil {
			return nil, fmt.Errorf("parse workbook: %w", err)
		}
	}
	var rels xlsxRelationships
	if data := readZipFile(zr, "xl/_rels/workbook.xml.rels"); len(data) > 0 {
		_ = xml.Unmarshal(data, &rels)
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = r.Target
	}

	target := ""
	if sheetName != "" {
		names := make([]string, 0, len(wb.Sheets))
		for _, s := range wb.Sheets {
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, sheetName) {
				if rel, ok := targets[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'; available sheets: %s",
				sheetName, filepath.Base(p), strings.Join(names, ", "))
		}
	} else {
		idx := sheetIndex
		if idx <= 0 {
			idx = 1
		}
		for _, s := range wb.Sheets {
			if s.SheetID == idx {
				if rel, ok := targets[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
				break
			}
		}
		if target == "" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
		}
	}

	sheet := readZipFile(zr, target)
	if len(sheet) == 0 {
		return nil, fmt.Errorf("worksheet %s missing from %s", target, filepath.Base(p))
	}
	var shared []string
	if data := readZipFile(zr, "xl/sharedStrings.xml"); len(data) > 0 {
		var ss xlsxSharedStrings
		if err := xml.Unmarshal(data, &ss); err != nil {
			return nil, fmt.Errorf("parse shared strings: %w", err)
		}
		for _, si := range ss.Items {
			if len(si.Runs) == 0 {
				shared = append(shared, si.T)
				continue
			}
			var sb strings.Builder
			for _, r := range si.Runs {
				sb.WriteString(r.T)
			}
			shared = append(shared, sb.String())
		}
	}
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(sheet)), shared: shared}, nil
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// normalizeRelPath converts relationship targets to ZIP entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

// sheetRowReader streams <row> elements and satisfies recordReader.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
}

func (r *sheetRowReader) Read() ([]string, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read sheet: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row struct {
			Cells []xlsxCell `xml:"c"`
		}
		if err := r.dec.DecodeElement(&row, &se); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		var out []string
		for i, c := range row.Cells {
			col := i
			if ci := colIndexFromRef(c.Ref); ci >= 0 {
				col = ci
			}
			for len(out) <= col {
				out = append(out, "")
			}
			out[col] = r.cellValue(c)
		}
		return out, nil
	}
}

func (r *sheetRowReader) cellValue(c xlsxCell) string {
	switch c.Type {
	case "s":
		idx := atoiSafe(c.Value)
		if idx >= 0 && idx < len(r.shared) {
			return r.shared[idx]
		}
		return ""
	case "inlineStr":
		return c.Inline
	}
	return c.Value
}

// colIndexFromRef maps a cell reference like "C12" to a 0-based column index.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
