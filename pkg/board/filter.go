package board

import (
	"sort"
	"strings"
	"time"

	"opsboard/pkg/model"
	"opsboard/pkg/sheets"
)

type Dataset string

const (
	DatasetAll       Dataset = ""
	DatasetIncidents Dataset = "inv"
	DatasetChanges   Dataset = "evo"
)

// ParseDataset accepts "", "all", "inv" and "evo".
func ParseDataset(s string) (Dataset, bool) {
	switch Dataset(model.Normalize(s)) {
	case "", "all":
		return DatasetAll, true
	case DatasetIncidents:
		return DatasetIncidents, true
	case DatasetChanges:
		return DatasetChanges, true
	}
	return DatasetAll, false
}

// Filter selects rows. Each Columns entry keeps rows whose value is one of
// the selected values; an empty selection keeps everything.
type Filter struct {
	Dataset Dataset
	Columns map[string][]string
	Search  string
}

func (f Filter) match(s model.Schema, r sheets.Row) bool {
	switch f.Dataset {
	case DatasetIncidents:
		if model.IsChangeRequest(r.Get(s.Tipo)) {
			return false
		}
	case DatasetChanges:
		if !model.IsChangeRequest(r.Get(s.Tipo)) {
			return false
		}
	}
	for col, selected := range f.Columns {
		if len(selected) == 0 {
			continue
		}
		v := r.Get(col)
		found := false
		for _, want := range selected {
			if v == strings.TrimSpace(want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q := model.Normalize(f.Search); q != "" {
		hit := false
		for _, v := range r.Cells {
			if strings.Contains(model.Normalize(v), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Rows returns the loaded rows matching f, in sheet order.
func (b *Board) Rows(f Filter) []sheets.Row {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.table == nil {
		return nil
	}
	var out []sheets.Row
	for _, r := range b.table.Rows {
		if f.match(b.schema, r) {
			out = append(out, r)
		}
	}
	return out
}

// Options returns the sorted distinct non-empty values of column.
func (b *Board) Options(column string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.table == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range b.table.Rows {
		v := r.Get(column)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Snapshot is everything a table view renders.
type Snapshot struct {
	Table     string              `json:"table"`
	Tab       string              `json:"tab"`
	Headers   []string            `json:"headers"`
	Rows      []sheets.Row        `json:"rows"`
	Options   map[string][]string `json:"options,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
	Conflicts []Conflict          `json:"conflicts,omitempty"`
	Pending   []PendingWrite      `json:"pending,omitempty"`
	LoadedAt  time.Time           `json:"loadedAt"`
}

// Snapshot returns the filtered rows plus filter options for optionCols.
func (b *Board) Snapshot(f Filter, optionCols ...string) Snapshot {
	rows := b.Rows(f)
	opts := make(map[string][]string, len(optionCols))
	for _, c := range optionCols {
		opts[c] = b.Options(c)
	}

	b.mu.RLock()
	snap := Snapshot{
		Table:     b.cfg.Name,
		Rows:      rows,
		Options:   opts,
		Warnings:  append([]string(nil), b.warnings...),
		Conflicts: append([]Conflict(nil), b.conflicts...),
		LoadedAt:  b.loadedAt,
	}
	if b.table != nil {
		snap.Tab = b.table.Tab
		snap.Headers = append([]string(nil), b.table.Headers...)
	}
	b.mu.RUnlock()

	snap.Pending = b.Pending()
	return snap
}
