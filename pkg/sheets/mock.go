package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/api/sheets/v4"
)

// MockValues is an in-memory ValuesAPI keyed by tab title. Batch updates
// are applied to the stored grid so a later read sees them.
type MockValues struct {
	mu      sync.Mutex
	Tabs    map[string][][]interface{}
	GridIDs map[string]int64

	GetErr    error
	UpdateErr error

	Gets    []string
	Batches [][]*sheets.ValueRange
}

func NewMockValues() *MockValues {
	return &MockValues{Tabs: map[string][][]interface{}{}, GridIDs: map[string]int64{}}
}

// SetTab replaces the grid of tab with a header and data rows.
func (m *MockValues) SetTab(tab string, header []string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid := [][]interface{}{toRow(header)}
	for _, r := range rows {
		grid = append(grid, toRow(r))
	}
	m.Tabs[tab] = grid
}

// Cell returns the stored value at a 1-based row and 0-based column.
func (m *MockValues) Cell(tab string, row, col int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid := m.Tabs[tab]
	if row-1 >= len(grid) || col >= len(grid[row-1]) {
		return ""
	}
	return cellString(grid[row-1][col])
}

func (m *MockValues) GetValues(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets = append(m.Gets, rng)
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	tab, _, _, err := splitRange(rng)
	if err != nil {
		return nil, err
	}
	grid, ok := m.Tabs[tab]
	if !ok {
		return nil, fmt.Errorf("unable to parse range: %s", rng)
	}
	out := make([][]interface{}, len(grid))
	for i, r := range grid {
		out[i] = append([]interface{}(nil), r...)
	}
	return out, nil
}

func (m *MockValues) BatchUpdateValues(ctx context.Context, spreadsheetID string, data []*sheets.ValueRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches = append(m.Batches, data)
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, vr := range data {
		tab, row, col, err := splitRange(vr.Range)
		if err != nil {
			return err
		}
		grid := m.Tabs[tab]
		for len(grid) < row {
			grid = append(grid, nil)
		}
		for len(grid[row-1]) <= col {
			grid[row-1] = append(grid[row-1], "")
		}
		grid[row-1][col] = vr.Values[0][0]
		m.Tabs[tab] = grid
	}
	return nil
}

func (m *MockValues) SheetProperties(ctx context.Context, spreadsheetID string) ([]*sheets.SheetProperties, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var props []*sheets.SheetProperties
	for title, id := range m.GridIDs {
		props = append(props, &sheets.SheetProperties{Title: title, SheetId: id})
	}
	return props, nil
}

func toRow(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// splitRange parses 'Tab'!C5 (or 'Tab'!A1:X9, returning the start cell).
func splitRange(rng string) (tab string, row, col int, err error) {
	i := strings.LastIndex(rng, "!")
	if i < 0 {
		return "", 0, 0, fmt.Errorf("bad range %q", rng)
	}
	tab = rng[:i]
	if strings.HasPrefix(tab, "'") && strings.HasSuffix(tab, "'") && len(tab) >= 2 {
		tab = strings.ReplaceAll(tab[1:len(tab)-1], "''", "'")
	}
	ref := rng[i+1:]
	if j := strings.Index(ref, ":"); j >= 0 {
		ref = ref[:j]
	}
	n := 0
	for n < len(ref) && ref[n] >= 'A' && ref[n] <= 'Z' {
		col = col*26 + int(ref[n]-'A'+1)
		n++
	}
	row, err = strconv.Atoi(ref[n:])
	if err != nil || n == 0 || row < 1 {
		return "", 0, 0, fmt.Errorf("bad range %q", rng)
	}
	return tab, row, col - 1, nil
}
