package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"opsboard/pkg/metrics"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/sheets/v4"
)

type Writer struct {
	api    ValuesAPI
	reader *Reader
}

func NewWriter(api ValuesAPI) *Writer {
	return &Writer{api: api, reader: NewReader(api)}
}

// UpdateByKey re-reads the target, resolves every update to a row through
// keyColumn and submits all matched cells in a single batch. Keys and
// columns that cannot be resolved are skipped and reported in the result.
// Keys found on more than one row are never written.
func (w *Writer) UpdateByKey(ctx context.Context, t Target, keyColumn string, updates []Update) (WriteResult, error) {
	var res WriteResult

	table, err := w.reader.ReadTable(ctx, t)
	if err != nil {
		return res, err
	}
	keyIdx := table.Index(keyColumn)
	if keyIdx < 0 {
		return res, fmt.Errorf("%s in %s: %w", keyColumn, table.Tab, ErrKeyColumnMissing)
	}
	keyName := table.Headers[keyIdx]

	rowsByKey := make(map[string][]int)
	for _, r := range table.Rows {
		if k := r.Get(keyName); k != "" {
			rowsByKey[k] = append(rowsByKey[k], r.Number)
		}
	}

	unknown := make(map[string]bool)
	var data []*sheets.ValueRange
	for _, u := range updates {
		res.Attempted += len(u.Set)
		key := strings.TrimSpace(u.Key)
		rows := rowsByKey[key]
		switch {
		case len(rows) == 0:
			res.Unmatched = append(res.Unmatched, key)
			continue
		case len(rows) > 1:
			res.Ambiguous = append(res.Ambiguous, key)
			continue
		}

		cols := make([]string, 0, len(u.Set))
		for c := range u.Set {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			idx := table.Index(c)
			if idx < 0 {
				if !unknown[c] {
					unknown[c] = true
					res.UnknownColumns = append(res.UnknownColumns, c)
				}
				continue
			}
			res.Matched++
			data = append(data, &sheets.ValueRange{
				Range:  CellRange(table.Tab, rows[0], idx),
				Values: [][]interface{}{{u.Set[c]}},
			})
		}
	}

	reportSkips(table.Tab, res)
	if len(data) == 0 {
		return res, nil
	}
	if err := w.api.BatchUpdateValues(ctx, t.SpreadsheetID, data); err != nil {
		log.WithFields(log.Fields{"tab": table.Tab, "cells": len(data)}).Errorf("Failed to write cells: %v", err)
		return res, fmt.Errorf("write %s: %w", table.Tab, err)
	}
	res.Written = res.Matched
	metrics.AddCellsWritten(res.Written)
	log.WithFields(log.Fields{"tab": table.Tab, "cells": res.Written}).Info("Cells written")
	return res, nil
}

// WriteCells submits cells whose row and column are already known.
func (w *Writer) WriteCells(ctx context.Context, t Target, cells []Cell) (int, error) {
	if len(cells) == 0 {
		return 0, nil
	}
	tab, err := w.reader.ResolveTab(ctx, t)
	if err != nil {
		return 0, err
	}
	data := make([]*sheets.ValueRange, 0, len(cells))
	for _, c := range cells {
		if c.Column < 0 {
			return 0, fmt.Errorf("column %d: %w", c.Column, ErrInvalidColumn)
		}
		if c.Row < 1 {
			return 0, fmt.Errorf("row %d: %w", c.Row, ErrInvalidRowNumber)
		}
		data = append(data, &sheets.ValueRange{
			Range:  CellRange(tab, c.Row, c.Column),
			Values: [][]interface{}{{c.Value}},
		})
	}
	if err := w.api.BatchUpdateValues(ctx, t.SpreadsheetID, data); err != nil {
		return 0, fmt.Errorf("write %s: %w", tab, err)
	}
	metrics.AddCellsWritten(len(data))
	return len(data), nil
}

func reportSkips(tab string, res WriteResult) {
	metrics.AddWriteSkips("unmatched_key", len(res.Unmatched))
	metrics.AddWriteSkips("ambiguous_key", len(res.Ambiguous))
	metrics.AddWriteSkips("unknown_column", len(res.UnknownColumns))
	if len(res.Unmatched)+len(res.Ambiguous)+len(res.UnknownColumns) == 0 {
		return
	}
	log.WithFields(log.Fields{
		"tab":       tab,
		"unmatched": res.Unmatched,
		"ambiguous": res.Ambiguous,
		"columns":   res.UnknownColumns,
	}).Warn("Skipped unresolved writes")
}
