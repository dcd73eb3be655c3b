package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Reader struct {
	api ValuesAPI
}

func NewReader(api ValuesAPI) *Reader {
	return &Reader{api: api}
}

// ResolveTab returns the tab name for t, looking the grid id up in the
// spreadsheet metadata when no name was given.
func (r *Reader) ResolveTab(ctx context.Context, t Target) (string, error) {
	if strings.TrimSpace(t.Tab) != "" {
		return t.Tab, nil
	}
	if strings.TrimSpace(t.GridID) == "" {
		return "", ErrNoTab
	}
	gid, err := strconv.ParseInt(strings.TrimSpace(t.GridID), 10, 64)
	if err != nil {
		return "", fmt.Errorf("grid id %q: %w", t.GridID, ErrTabNotFound)
	}
	props, err := r.api.SheetProperties(ctx, t.SpreadsheetID)
	if err != nil {
		return "", fmt.Errorf("spreadsheet metadata: %w", err)
	}
	for _, p := range props {
		if p != nil && p.SheetId == gid {
			return p.Title, nil
		}
	}
	return "", fmt.Errorf("grid id %d: %w", gid, ErrTabNotFound)
}

// ReadTable fetches the bounded range of the target tab in one request.
// Row 0 becomes the header list; rows whose cells are all blank are dropped.
func (r *Reader) ReadTable(ctx context.Context, t Target) (*Table, error) {
	t = t.withDefaults()
	tab, err := r.ResolveTab(ctx, t)
	if err != nil {
		return nil, err
	}

	values, err := r.api.GetValues(ctx, t.SpreadsheetID, TableRange(tab, t.MaxColumns, t.MaxRows))
	if err != nil {
		log.WithFields(log.Fields{"spreadsheet": t.SpreadsheetID, "tab": tab}).Errorf("Failed to read sheet: %v", err)
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}

	table := buildTable(tab, values)
	log.WithFields(log.Fields{"tab": tab, "rows": len(table.Rows)}).Debug("Sheet read")
	return table, nil
}

func buildTable(tab string, values [][]interface{}) *Table {
	table := &Table{Tab: tab}
	if len(values) == 0 {
		return table
	}

	table.Headers = make([]string, len(values[0]))
	for i, h := range values[0] {
		table.Headers[i] = strings.TrimSpace(cellString(h))
	}

	for i, raw := range values[1:] {
		if blankRow(raw) {
			continue
		}
		row := Row{Number: i + 2, Cells: make(map[string]string, len(table.Headers))}
		for c, h := range table.Headers {
			if h == "" {
				continue
			}
			if _, dup := row.Cells[h]; dup {
				continue
			}
			if c < len(raw) {
				row.Cells[h] = cellString(raw[c])
			} else {
				row.Cells[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func blankRow(raw []interface{}) bool {
	for _, v := range raw {
		if strings.TrimSpace(cellString(v)) != "" {
			return false
		}
	}
	return true
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
