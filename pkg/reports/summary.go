// Package reports computes the dashboard aggregates: the 30-day desk
// report, the open-ticket distribution, escalation candidates and the
// insight tab.
package reports

import (
	"strings"
	"time"

	"opsboard/pkg/model"
	"opsboard/pkg/sheets"
)

const (
	DefaultWindow = 30
	groupLimit    = 50
)

type Input struct {
	Abiertos        []model.Ticket
	Cerrados        []model.Ticket
	CerradosHeaders []string
}

type Summary struct {
	GeneratedAt time.Time `json:"generatedAt"`
	WindowDays  int       `json:"windowDays"`
	Desks       []string  `json:"desks"`

	CreatedIncidents int `json:"createdIncidents"`
	CreatedChanges   int `json:"createdChanges"`
	ClosedIncidents  int `json:"closedIncidents"`
	ClosedChanges    int `json:"closedChanges"`

	ClosedIncidentsByAgent  []model.Bucket `json:"closedIncidentsByAgent"`
	ClosedIncidentsByModule []model.Bucket `json:"closedIncidentsByModule"`
	ClosedChangesByAgent    []model.Bucket `json:"closedChangesByAgent"`
	ClosedChangesByModule   []model.Bucket `json:"closedChangesByModule"`

	Warnings []string `json:"warnings,omitempty"`
}

// BuildSummary reports tickets of the vendor desks created (from Abiertos)
// and closed (from Cerrados) in the trailing window, split into incidents
// and change requests.
func BuildSummary(in Input, days int, now time.Time) Summary {
	s := Summary{GeneratedAt: now, WindowDays: days}
	for _, d := range model.ReportDesks {
		s.Desks = append(s.Desks, string(d))
	}

	hdr := &sheets.Table{Headers: in.CerradosHeaders}
	if missing := hdr.Missing("Fecha fin", "Estado"); len(missing) > 0 {
		s.Warnings = append(s.Warnings, "No encuentro columna de cierre en Cerrados. Faltan: "+strings.Join(missing, ", "))
	}

	for _, t := range in.Abiertos {
		if !model.IsReportDesk(t.Mesa) || !within(t.Created, days, now) {
			continue
		}
		if t.IsChangeRequest() {
			s.CreatedChanges++
		} else {
			s.CreatedIncidents++
		}
	}

	var incAgents, incModules, chgAgents, chgModules []string
	for _, t := range in.Cerrados {
		if !model.IsReportDesk(t.Mesa) || !model.IsClosed(t.Estado) || !within(t.Closed, days, now) {
			continue
		}
		if t.IsChangeRequest() {
			s.ClosedChanges++
			chgAgents = append(chgAgents, t.Agente)
			chgModules = append(chgModules, t.Modulo)
		} else {
			s.ClosedIncidents++
			incAgents = append(incAgents, t.Agente)
			incModules = append(incModules, t.Modulo)
		}
	}
	s.ClosedIncidentsByAgent = model.CountValues(incAgents, model.ByCount, groupLimit)
	s.ClosedIncidentsByModule = model.CountValues(incModules, model.ByCount, groupLimit)
	s.ClosedChangesByAgent = model.CountValues(chgAgents, model.ByCount, groupLimit)
	s.ClosedChangesByModule = model.CountValues(chgModules, model.ByCount, groupLimit)
	return s
}

func within(t *time.Time, days int, now time.Time) bool {
	if days < 0 {
		return true
	}
	return t != nil && model.WithinLastDays(*t, days, now)
}

// CreatedSeries counts tickets per creation day inside the window.
func CreatedSeries(tickets []model.Ticket, days int, now time.Time) []model.DayCount {
	var created []time.Time
	for _, t := range tickets {
		if t.Created != nil && within(t.Created, days, now) {
			created = append(created, t.Created.In(now.Location()))
		}
	}
	return model.CountDays(created)
}
