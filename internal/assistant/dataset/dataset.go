package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is an in-memory tabular dataset: a header row plus string cells.
// Tables are request-scoped; the pipeline never caches or shares them.
type Table struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of an exact column name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// LoadCSV reads a CSV stream into a Table. The first record is the header and
// must contain at least one non-empty, unique column name. Ragged rows are
// rejected by the csv reader.
func LoadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	seen := make(map[string]struct{}, len(header))
	columns := make([]string, 0, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("csv: empty column name at position %d", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("csv: duplicate column %q", name)
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

// LoadCSVFile opens and parses a CSV file from disk.
func LoadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadCSV(f)
}
