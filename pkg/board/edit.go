package board

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"opsboard/pkg/model"
	"opsboard/pkg/sheets"
	"opsboard/pkg/tags"

	log "github.com/sirupsen/logrus"
)

// Edit writes set to the row identified by key. Only editable columns
// are accepted.
func (b *Board) Edit(ctx context.Context, key string, set map[string]string) (sheets.WriteResult, error) {
	if len(set) == 0 {
		return sheets.WriteResult{}, nil
	}
	for col := range set {
		if !b.editable(col) {
			return sheets.WriteResult{}, fmt.Errorf("%s: %w", col, ErrNotEditable)
		}
	}
	if _, err := b.ticket(key); err != nil {
		return sheets.WriteResult{}, err
	}
	return b.apply(ctx, []sheets.Update{{Key: strings.TrimSpace(key), Set: set}})
}

// Mark sets or clears the mark of a row.
func (b *Board) Mark(ctx context.Context, key string, m model.Mark) (sheets.WriteResult, error) {
	if b.cfg.Schema.Mark == "" {
		return sheets.WriteResult{}, ErrNoMarkColumn
	}
	if _, err := b.ticket(key); err != nil {
		return sheets.WriteResult{}, err
	}
	col := b.currentSchema().Mark
	return b.apply(ctx, []sheets.Update{{Key: strings.TrimSpace(key), Set: map[string]string{col: string(m)}}})
}

// CreateLabelOwner makes the row the owner of a new label.
func (b *Board) CreateLabelOwner(ctx context.Context, key, name, color string) (sheets.WriteResult, error) {
	return b.applyTags(ctx, func(t []model.Ticket) ([]sheets.Update, error) {
		return tags.CreateOwner(b.currentSchema(), t, key, name, color)
	})
}

// RemoveLabelOwner deletes the row's label and every reference to it.
func (b *Board) RemoveLabelOwner(ctx context.Context, key string) (sheets.WriteResult, error) {
	return b.applyTags(ctx, func(t []model.Ticket) ([]sheets.Update, error) {
		return tags.RemoveOwner(b.currentSchema(), t, key)
	})
}

func (b *Board) AssignLabel(ctx context.Context, key, name string) (sheets.WriteResult, error) {
	return b.applyTags(ctx, func(t []model.Ticket) ([]sheets.Update, error) {
		return tags.Assign(b.currentSchema(), t, key, name)
	})
}

func (b *Board) ClearLabel(ctx context.Context, key string) (sheets.WriteResult, error) {
	return b.applyTags(ctx, func(t []model.Ticket) ([]sheets.Update, error) {
		return tags.Clear(b.currentSchema(), t, key)
	})
}

// Labels returns the owned labels and the rows grouped under each label.
func (b *Board) Labels() ([]tags.Label, []tags.Group) {
	t := b.Tickets()
	return tags.Owners(t), tags.Groups(t)
}

func (b *Board) applyTags(ctx context.Context, plan func([]model.Ticket) ([]sheets.Update, error)) (sheets.WriteResult, error) {
	if !b.Loaded() {
		return sheets.WriteResult{}, ErrNotLoaded
	}
	updates, err := plan(b.Tickets())
	if err != nil {
		return sheets.WriteResult{}, err
	}
	return b.apply(ctx, updates)
}

func (b *Board) editable(col string) bool {
	if strings.EqualFold(strings.TrimSpace(col), b.cfg.Schema.Key) {
		return false
	}
	for _, e := range b.cfg.Editable {
		if strings.EqualFold(strings.TrimSpace(col), e) {
			return true
		}
	}
	return false
}

func (b *Board) ticket(key string) (model.Ticket, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.table == nil {
		return model.Ticket{}, ErrNotLoaded
	}
	key = strings.TrimSpace(key)
	for _, t := range b.tickets {
		if t.Key == key {
			return t, nil
		}
	}
	return model.Ticket{}, fmt.Errorf("%s: %w", key, ErrRowNotFound)
}

// apply writes updates and patches the resolved cells locally. A failed
// batch still leaves the patch and the pending entries in place; the next
// load reports any cell the sheet did not take as a conflict.
func (b *Board) apply(ctx context.Context, updates []sheets.Update) (sheets.WriteResult, error) {
	res, err := b.writer.UpdateByKey(ctx, b.cfg.Target, b.cfg.Schema.Key, updates)
	if res.Matched > 0 {
		b.patch(updates, res, err != nil)
	}
	if err != nil {
		return res, err
	}
	if res.Partial() {
		log.WithFields(log.Fields{
			"table":     b.cfg.Name,
			"attempted": res.Attempted,
			"written":   res.Written,
		}).Warn("Partial write")
	}
	return res, nil
}

func (b *Board) patch(updates []sheets.Update, res sheets.WriteResult, failed bool) {
	skip := make(map[string]bool)
	for _, k := range res.Unmatched {
		skip[k] = true
	}
	for _, k := range res.Ambiguous {
		skip[k] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.table == nil {
		return
	}
	now := nowFunc()
	for _, u := range updates {
		key := strings.TrimSpace(u.Key)
		if skip[key] {
			continue
		}
		for i := range b.table.Rows {
			r := &b.table.Rows[i]
			if r.Get(b.schema.Key) != key {
				continue
			}
			cells := maps.Clone(r.Cells)
			for col, v := range u.Set {
				idx := b.table.Index(col)
				if idx < 0 {
					continue
				}
				header := b.table.Headers[idx]
				cells[header] = v
				b.pending[cellKey{key, header}] = PendingWrite{Key: key, Column: header, Value: v, Written: now, Failed: failed}
			}
			r.Cells = cells
			b.tickets[i] = b.schema.Ticket(*r, b.cfg.Location)
		}
	}
}
