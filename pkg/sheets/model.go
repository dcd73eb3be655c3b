package sheets

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/sheets/v4"
)

const (
	DefaultMaxColumns = 200
	DefaultMaxRows    = 20000
)

var (
	ErrTabNotFound      = errors.New("tab not found")
	ErrKeyColumnMissing = errors.New("key column not found in header")
	ErrNoTab            = errors.New("target has neither tab name nor grid id")
	ErrInvalidColumn    = errors.New("invalid column index")
	ErrInvalidRowNumber = errors.New("invalid row number")
)

// ValuesAPI is the slice of the Sheets API the reader and writer need.
type ValuesAPI interface {
	GetValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
	BatchUpdateValues(ctx context.Context, spreadsheetID string, data []*sheets.ValueRange) error
	SheetProperties(ctx context.Context, spreadsheetID string) ([]*sheets.SheetProperties, error)
}

// Target identifies a bounded range of one tab.
type Target struct {
	SpreadsheetID string
	Tab           string
	GridID        string
	MaxColumns    int
	MaxRows       int
}

func (t Target) withDefaults() Target {
	if t.MaxColumns <= 0 {
		t.MaxColumns = DefaultMaxColumns
	}
	if t.MaxRows <= 0 {
		t.MaxRows = DefaultMaxRows
	}
	return t
}

// Row is one data row. Number is the 1-based row in the sheet.
type Row struct {
	Number int               `json:"number"`
	Cells  map[string]string `json:"cells"`
}

// Get returns the trimmed cell value for header, or "" when absent.
func (r Row) Get(header string) string {
	return strings.TrimSpace(r.Cells[header])
}

// Table is the result of reading one tab.
type Table struct {
	Tab     string
	Headers []string
	Rows    []Row
}

// Index returns the position of header, or -1. Exact matches win over
// case-insensitive ones.
func (t *Table) Index(header string) int {
	want := strings.TrimSpace(header)
	if want == "" {
		return -1
	}
	for i, h := range t.Headers {
		if h == want {
			return i
		}
	}
	for i, h := range t.Headers {
		if h != "" && strings.EqualFold(h, want) {
			return i
		}
	}
	return -1
}

// Has reports whether header is present.
func (t *Table) Has(header string) bool {
	return t.Index(header) >= 0
}

// Missing lists the columns not present in the header row.
func (t *Table) Missing(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// DuplicateKeys returns the key values found on more than one row, in
// order of first appearance.
func (t *Table) DuplicateKeys(keyColumn string) []string {
	idx := t.Index(keyColumn)
	if idx < 0 {
		return nil
	}
	name := t.Headers[idx]
	seen := make(map[string]int)
	var dups []string
	for _, r := range t.Rows {
		k := r.Get(name)
		if k == "" {
			continue
		}
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// Update sets columns on the row identified by Key.
type Update struct {
	Key string
	Set map[string]string
}

// Cell is a pre-resolved write target. Column is 0-based.
type Cell struct {
	Row    int
	Column int
	Value  string
}

// WriteResult reports what a write-by-key call actually did.
type WriteResult struct {
	Attempted      int      `json:"attempted"`
	Matched        int      `json:"matched"`
	Written        int      `json:"written"`
	Unmatched      []string `json:"unmatched,omitempty"`
	UnknownColumns []string `json:"unknownColumns,omitempty"`
	Ambiguous      []string `json:"ambiguous,omitempty"`
}

// Partial reports whether some requested cells were not written.
func (r WriteResult) Partial() bool {
	return r.Written < r.Attempted
}
