// Package board keeps the loaded rows of one sheet tab and applies edits,
// marks and label changes to it. Writes are patched into the local rows
// at once and tracked as pending until the next load confirms them.
package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"opsboard/pkg/metrics"
	"opsboard/pkg/model"
	"opsboard/pkg/sheets"

	log "github.com/sirupsen/logrus"
)

var (
	ErrRowNotFound  = errors.New("row not found")
	ErrNotEditable  = errors.New("column is not editable")
	ErrNotLoaded    = errors.New("table has not been loaded")
	ErrNoMarkColumn = errors.New("table has no mark column")
)

var nowFunc = time.Now

type Config struct {
	Name     string
	Target   sheets.Target
	Schema   model.Schema
	Marks    model.MarkSet
	Editable []string
	Location *time.Location
}

// Conflict is a written cell whose value on the next read differed.
type Conflict struct {
	Key      string `json:"key"`
	Column   string `json:"column"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// PendingWrite is a cell written but not yet seen on a read.
type PendingWrite struct {
	Key     string    `json:"key"`
	Column  string    `json:"column"`
	Value   string    `json:"value"`
	Written time.Time `json:"written"`
	Failed  bool      `json:"failed,omitempty"`
}

type cellKey struct{ key, column string }

type Board struct {
	cfg    Config
	reader *sheets.Reader
	writer *sheets.Writer

	mu        sync.RWMutex
	schema    model.Schema
	table     *sheets.Table
	tickets   []model.Ticket
	loadedAt  time.Time
	warnings  []string
	pending   map[cellKey]PendingWrite
	conflicts []Conflict
}

func New(cfg Config, api sheets.ValuesAPI) *Board {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Board{
		cfg:     cfg,
		schema:  cfg.Schema,
		reader:  sheets.NewReader(api),
		writer:  sheets.NewWriter(api),
		pending: make(map[cellKey]PendingWrite),
	}
}

func (b *Board) Name() string { return b.cfg.Name }
func (b *Board) Schema() model.Schema { return b.cfg.Schema }
func (b *Board) Marks() model.MarkSet { return b.cfg.Marks }
func (b *Board) Editable() []string { return b.cfg.Editable }
func (b *Board) Target() sheets.Target { return b.cfg.Target }

// currentSchema is cfg.Schema spelled as in the last loaded header row.
func (b *Board) currentSchema() model.Schema {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.schema
}

// Load re-reads the tab. On failure the previous rows are kept and the
// error is returned; pending writes stay pending.
func (b *Board) Load(ctx context.Context) error {
	table, err := b.reader.ReadTable(ctx, b.cfg.Target)
	if err != nil {
		log.WithField("table", b.cfg.Name).Errorf("Load failed, keeping previous rows: %v", err)
		return err
	}
	schema := b.cfg.Schema.Resolve(table)
	tickets := schema.Tickets(table.Rows, b.cfg.Location)
	warnings := headerWarnings(table, schema)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.schema = schema
	b.table = table
	b.tickets = tickets
	b.loadedAt = nowFunc()
	b.warnings = warnings
	b.reconcile()
	return nil
}

func headerWarnings(table *sheets.Table, s model.Schema) []string {
	var warnings []string
	if missing := table.Missing(s.Columns()...); len(missing) > 0 {
		warnings = append(warnings, "Faltan columnas: "+strings.Join(missing, ", "))
	}
	if s.Key != "" {
		if dups := table.DuplicateKeys(s.Key); len(dups) > 0 {
			log.WithFields(log.Fields{"tab": table.Tab, "keys": dups}).Warn("Duplicate keys, writes to them will be skipped")
			warnings = append(warnings, fmt.Sprintf("Claves duplicadas en %s: %s", s.Key, strings.Join(dups, ", ")))
		}
	}
	return warnings
}

// reconcile must be called with mu held.
func (b *Board) reconcile() {
	b.conflicts = nil
	if len(b.pending) == 0 {
		return
	}
	rows := b.rowsByKey()
	for ck, p := range b.pending {
		delete(b.pending, ck)
		matches := rows[ck.key]
		if len(matches) != 1 {
			continue
		}
		actual := matches[0].Get(ck.column)
		if actual == strings.TrimSpace(p.Value) {
			continue
		}
		b.conflicts = append(b.conflicts, Conflict{Key: ck.key, Column: ck.column, Expected: p.Value, Actual: actual})
	}
	sort.Slice(b.conflicts, func(i, j int) bool {
		if b.conflicts[i].Key != b.conflicts[j].Key {
			return b.conflicts[i].Key < b.conflicts[j].Key
		}
		return b.conflicts[i].Column < b.conflicts[j].Column
	})
	if len(b.conflicts) > 0 {
		metrics.AddConflicts(b.cfg.Name, len(b.conflicts))
		log.WithFields(log.Fields{"table": b.cfg.Name, "conflicts": len(b.conflicts)}).Warn("Written values differ from sheet")
	}
}

// rowsByKey must be called with mu held.
func (b *Board) rowsByKey() map[string][]sheets.Row {
	out := make(map[string][]sheets.Row)
	if b.table == nil || b.schema.Key == "" {
		return out
	}
	for _, r := range b.table.Rows {
		if k := r.Get(b.schema.Key); k != "" {
			out[k] = append(out[k], r)
		}
	}
	return out
}

// Loaded reports whether a load has succeeded at least once.
func (b *Board) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.table != nil
}

// Table returns a copy of the last loaded table, or nil.
func (b *Board) Table() *sheets.Table {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.table == nil {
		return nil
	}
	t := *b.table
	t.Rows = append([]sheets.Row(nil), b.table.Rows...)
	return &t
}

// Tickets returns every loaded row as a typed ticket.
func (b *Board) Tickets() []model.Ticket {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]model.Ticket(nil), b.tickets...)
}

func (b *Board) Conflicts() []Conflict {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Conflict(nil), b.conflicts...)
}

func (b *Board) Pending() []PendingWrite {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]PendingWrite, 0, len(b.pending))
	for _, p := range b.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Column < out[j].Column
	})
	return out
}
