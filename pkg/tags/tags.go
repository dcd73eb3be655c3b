// Package tags implements label ownership over a loaded ticket set. One
// row owns a label name and its colour; other rows reference the name.
// Every operation returns the cell updates to apply through the writer.
package tags

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"opsboard/pkg/model"
	"opsboard/pkg/sheets"
)

var (
	ErrTagOwned    = errors.New("label already has an owner")
	ErrTagNotOwned = errors.New("label has no owner")
	ErrEmptyName   = errors.New("label name is empty")
	ErrNoRow       = errors.New("row not found")
	ErrNoColumns   = errors.New("table has no label columns")
)

// OwnerFlag is written to the owner column of an owner row.
const OwnerFlag = "Sí"

const DefaultColor = "violeta"

var paletteOrder = []string{"violeta", "rosa", "verde-oscuro", "verde-claro", "naranja"}

var Palette = map[string]model.Style{
	"violeta":      {Background: "#F1E7FF", Border: "#7E57C2", Text: "#4A2C8C"},
	"rosa":         {Background: "#FDE7F3", Border: "#E91E63", Text: "#8A1846"},
	"verde-oscuro": {Background: "#E6F4EA", Border: "#2E7D32", Text: "#1B5E20"},
	"verde-claro":  {Background: "#ECFDF5", Border: "#43A047", Text: "#2E7D32"},
	"naranja":      {Background: "#FFF3E0", Border: "#FB8C00", Text: "#EF6C00"},
}

// Label is an owned label.
type Label struct {
	Name     string `json:"name"`
	OwnerKey string `json:"ownerKey"`
	Color    string `json:"color"`
	Asunto   string `json:"asunto,omitempty"`
}

// NormalizeColor maps free text onto a palette key, or "" if it is not one.
func NormalizeColor(s string) string {
	c := strings.Join(strings.Fields(model.Normalize(s)), "-")
	if _, ok := Palette[c]; ok {
		return c
	}
	return ""
}

// Owners returns one Label per name, taken from the first owner row.
func Owners(tickets []model.Ticket) []Label {
	seen := make(map[string]bool)
	var out []Label
	for _, t := range tickets {
		name := strings.TrimSpace(t.Label)
		if name == "" || !t.LabelOwner || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Label{
			Name:     name,
			OwnerKey: t.Key,
			Color:    NormalizeColor(t.LabelColor),
			Asunto:   t.Asunto,
		})
	}
	return out
}

func ownersOf(tickets []model.Ticket, name string) []model.Ticket {
	var out []model.Ticket
	for _, t := range tickets {
		if t.LabelOwner && strings.TrimSpace(t.Label) == name {
			out = append(out, t)
		}
	}
	return out
}

func find(tickets []model.Ticket, key string) (model.Ticket, error) {
	key = strings.TrimSpace(key)
	for _, t := range tickets {
		if t.Key == key {
			return t, nil
		}
	}
	return model.Ticket{}, fmt.Errorf("%s: %w", key, ErrNoRow)
}

// ownedBy returns the label name row owns, or "".
func ownedBy(row model.Ticket) string {
	if !row.LabelOwner {
		return ""
	}
	return strings.TrimSpace(row.Label)
}

// CreateOwner makes the row identified by key the owner of name. A row
// that owns another label must release it first. Unknown colours fall back
// to DefaultColor.
func CreateOwner(s model.Schema, tickets []model.Ticket, key, name, color string) ([]sheets.Update, error) {
	if s.Label == "" || s.LabelOwner == "" {
		return nil, ErrNoColumns
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	row, err := find(tickets, key)
	if err != nil {
		return nil, err
	}
	if owned := ownedBy(row); owned != "" && owned != name {
		return nil, fmt.Errorf("%s already owns %q: %w", row.Key, owned, ErrTagOwned)
	}
	for _, o := range ownersOf(tickets, name) {
		if o.Key != row.Key {
			return nil, fmt.Errorf("%q is owned by %s: %w", name, o.Key, ErrTagOwned)
		}
	}

	c := NormalizeColor(color)
	if c == "" {
		c = DefaultColor
	}
	set := map[string]string{s.LabelOwner: OwnerFlag, s.Label: name}
	if s.LabelColor != "" {
		set[s.LabelColor] = c
	}
	return []sheets.Update{{Key: row.Key, Set: set}}, nil
}

// RemoveOwner clears the owner row and removes the label from every row
// that references it.
func RemoveOwner(s model.Schema, tickets []model.Ticket, key string) ([]sheets.Update, error) {
	if s.Label == "" || s.LabelOwner == "" {
		return nil, ErrNoColumns
	}
	row, err := find(tickets, key)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(row.Label)
	if !row.LabelOwner || name == "" {
		return nil, fmt.Errorf("%s: %w", row.Key, ErrTagNotOwned)
	}

	blank := func(owner bool) map[string]string {
		set := map[string]string{s.Label: ""}
		if owner {
			set[s.LabelOwner] = ""
		}
		if s.LabelColor != "" {
			set[s.LabelColor] = ""
		}
		return set
	}

	updates := []sheets.Update{{Key: row.Key, Set: blank(true)}}
	for _, t := range tickets {
		if t.Key == row.Key || strings.TrimSpace(t.Label) != name {
			continue
		}
		updates = append(updates, sheets.Update{Key: t.Key, Set: blank(t.LabelOwner)})
	}
	return updates, nil
}

// Assign makes the row reference name, which must have exactly one owner.
// Owner rows only reference their own label.
func Assign(s model.Schema, tickets []model.Ticket, key, name string) ([]sheets.Update, error) {
	if s.Label == "" {
		return nil, ErrNoColumns
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	row, err := find(tickets, key)
	if err != nil {
		return nil, err
	}
	if owned := ownedBy(row); owned != "" && owned != name {
		return nil, fmt.Errorf("%s owns %q: %w", row.Key, owned, ErrTagOwned)
	}
	switch owners := ownersOf(tickets, name); len(owners) {
	case 0:
		return nil, fmt.Errorf("%q: %w", name, ErrTagNotOwned)
	case 1:
	default:
		return nil, fmt.Errorf("%q has %d owners: %w", name, len(owners), ErrTagOwned)
	}
	return []sheets.Update{{Key: row.Key, Set: map[string]string{s.Label: name}}}, nil
}

// Clear removes the label reference from a non-owner row.
func Clear(s model.Schema, tickets []model.Ticket, key string) ([]sheets.Update, error) {
	if s.Label == "" {
		return nil, ErrNoColumns
	}
	row, err := find(tickets, key)
	if err != nil {
		return nil, err
	}
	if row.LabelOwner && strings.TrimSpace(row.Label) != "" {
		return RemoveOwner(s, tickets, key)
	}
	return []sheets.Update{{Key: row.Key, Set: map[string]string{s.Label: ""}}}, nil
}

// StyleFor returns the owner's colour for name, or a palette entry picked
// from the name itself.
func StyleFor(owners []Label, name string) model.Style {
	name = strings.TrimSpace(name)
	for _, o := range owners {
		if o.Name == name && o.Color != "" {
			return Palette[o.Color]
		}
	}
	return Palette[hashColor(name)]
}

func hashColor(name string) string {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return paletteOrder[sum%len(paletteOrder)]
}

type LabelItem struct {
	Key    string `json:"key"`
	Asunto string `json:"asunto"`
}

type Group struct {
	Name  string      `json:"name"`
	Count int         `json:"count"`
	Style model.Style `json:"style"`
	Items []LabelItem `json:"items"`
}

// Groups lists the rows carrying each label, largest group first.
func Groups(tickets []model.Ticket) []Group {
	owners := Owners(tickets)
	idx := make(map[string]int)
	var out []Group
	for _, t := range tickets {
		name := strings.TrimSpace(t.Label)
		if name == "" {
			continue
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, Group{Name: name, Style: StyleFor(owners, name)})
		}
		out[i].Items = append(out[i].Items, LabelItem{Key: t.Key, Asunto: t.Asunto})
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
