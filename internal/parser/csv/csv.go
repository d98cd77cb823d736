// Package csv turns one page of the source CSV export into positional rows
// aligned to a caller-supplied column order. Parsing is strict: the header
// must cover exactly the expected columns and a malformed body row fails the
// whole page, so schema drift in the export surfaces immediately instead of
// corrupting chunks.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// normalizeHeader canonicalizes a source header cell: trimmed, lowercased,
// spaces to underscores.
func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// hasEdgeSpace reports whether s starts or ends with ASCII whitespace,
// so the hot loop only pays for TrimSpace when needed.
func hasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t'
}

// ReadRows parses CSV from r into rows aligned to columns. Cells are
// trimmed and empty cells become nil. The header row decides the source
// column positions, so the export may reorder columns freely; it may not
// drop or add any. An immediate EOF is a valid empty page: no header, no
// rows, no error.
func ReadRows(r io.Reader, columns []string) ([][]any, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	srcToIdx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		name := normalizeHeader(h)
		if _, dup := srcToIdx[name]; dup {
			return nil, fmt.Errorf("csv: duplicate column %q in header", name)
		}
		srcToIdx[name] = i
	}

	// Build the dest-to-source mapping; every target column must exist.
	colIx := make([]int, len(columns))
	for t, target := range columns {
		si, ok := srcToIdx[target]
		if !ok {
			return nil, fmt.Errorf("csv: source is missing column %q", target)
		}
		colIx[t] = si
		delete(srcToIdx, target)
	}
	if len(srcToIdx) > 0 {
		extras := make([]string, 0, len(srcToIdx))
		for name := range srcToIdx {
			extras = append(extras, name)
		}
		sort.Strings(extras)
		return nil, fmt.Errorf("csv: source has unexpected columns %v", extras)
	}

	var rows [][]any
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", line, err)
		}

		row := make([]any, len(columns))
		for t, si := range colIx {
			v := rec[si]
			if hasEdgeSpace(v) {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				continue
			}
			row[t] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
