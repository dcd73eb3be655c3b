package reports

import (
	"errors"
	"fmt"
	"strings"

	"opsboard/pkg/board"
	"opsboard/pkg/model"
	"opsboard/pkg/sheets"
	"opsboard/pkg/tags"
)

type View string

const (
	ViewMesa   View = "mesa"
	ViewModulo View = "modulo"
)

const distributionLimit = 12

func ParseView(s string) (View, error) {
	switch View(model.Normalize(s)) {
	case "", ViewMesa:
		return ViewMesa, nil
	case ViewModulo:
		return ViewModulo, nil
	}
	return "", fmt.Errorf("invalid view %q", s)
}

type Distribution struct {
	View           View           `json:"view"`
	Dataset        board.Dataset  `json:"dataset"`
	Buckets        []model.Bucket `json:"buckets"`
	Max            int            `json:"max"`
	TotalIncidents int            `json:"totalIncidents"`
	TotalChanges   int            `json:"totalChanges"`
	Labels         []tags.Group   `json:"labels"`
}

// BuildDistribution groups open tickets by desk (fixed tier order) or by
// module (largest first), keeping the top 12.
func BuildDistribution(tickets []model.Ticket, view View, dataset board.Dataset) Distribution {
	d := Distribution{View: view, Dataset: dataset, Max: 1}
	if d.Dataset == board.DatasetAll {
		d.Dataset = board.DatasetIncidents
	}

	var open []model.Ticket
	var values []string
	for _, t := range tickets {
		if !model.IsOpen(t.Estado) {
			continue
		}
		open = append(open, t)
		evo := t.IsChangeRequest()
		if evo {
			d.TotalChanges++
		} else {
			d.TotalIncidents++
		}
		if evo != (d.Dataset == board.DatasetChanges) {
			continue
		}
		if view == ViewModulo {
			values = append(values, t.Modulo)
		} else {
			values = append(values, t.Mesa)
		}
	}

	order := model.ByCount
	if view != ViewModulo {
		order = model.ByDeskRank
	}
	d.Buckets = model.CountValues(values, order, distributionLimit)
	for _, b := range d.Buckets {
		if b.Count > d.Max {
			d.Max = b.Count
		}
	}
	d.Labels = tags.Groups(open)
	return d
}

// EscalationMarker is the Escalamiento value of tickets proposed for N3.
const EscalationMarker = "Posible N3"

func Escalations(tickets []model.Ticket) []model.Ticket {
	var out []model.Ticket
	for _, t := range tickets {
		if strings.TrimSpace(t.Escalation) == EscalationMarker {
			out = append(out, t)
		}
	}
	return out
}

var ErrMissingColumns = errors.New("missing columns")

type Insight struct {
	Tema        string `json:"tema"`
	Insight     string `json:"insight"`
	Actualizado string `json:"actualizado,omitempty"`
}

// Insights reads the Tema / Insight / Última actualización tab.
func Insights(table *sheets.Table) ([]Insight, error) {
	if missing := table.Missing("Tema", "Insight"); len(missing) > 0 {
		return nil, fmt.Errorf("gemini: %s: %w", strings.Join(missing, ", "), ErrMissingColumns)
	}
	out := make([]Insight, 0, len(table.Rows))
	for _, r := range table.Rows {
		in := Insight{
			Tema:        r.Get("Tema"),
			Insight:     r.Get("Insight"),
			Actualizado: r.Get("Última actualización"),
		}
		if in.Tema == "" {
			in.Tema = "Sin tema"
		}
		out = append(out, in)
	}
	return out, nil
}
