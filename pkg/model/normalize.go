// Package model holds the pure row logic of the dashboard: value
// normalization, desk classification, date parsing, trailing-window
// filtering and aggregations.
package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims, lower-cases and strips diacritics.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// IsChangeRequest reports whether a Tipo value marks an evolutivo.
func IsChangeRequest(tipo string) bool {
	return Normalize(tipo) == "pedido de cambio"
}

// IsTruthy accepts the spellings used in flag columns ("Sí", "si", "x", "1", "true").
func IsTruthy(v string) bool {
	switch Normalize(v) {
	case "si", "s", "true", "1", "x", "y", "yes":
		return true
	}
	return false
}

type Desk string

const (
	DeskNivel1     Desk = "Nivel 1"
	DeskNivel2     Desk = "Nivel 2"
	DeskNivel3     Desk = "Nivel 3"
	DeskProduct    Desk = "Nivel Product"
	DeskBeesion    Desk = "Beesion"
	DeskTenfold    Desk = "Tenfold"
	DeskInvgate    Desk = "Invgate"
	DeskSharePoint Desk = "SharePoint"
	DeskOther      Desk = "Otro"
)

// deskOrder is the fixed display order; tiers first.
var deskOrder = []Desk{
	DeskNivel1, DeskNivel2, DeskNivel3, DeskProduct,
	DeskBeesion, DeskTenfold, DeskInvgate, DeskSharePoint,
}

// ClassifyDesk maps a free-text Mesa value to a logical desk by substring.
func ClassifyDesk(name string) Desk {
	n := Normalize(name)
	if n == "" {
		return DeskOther
	}
	for _, d := range deskOrder {
		if strings.Contains(n, Normalize(string(d))) {
			return d
		}
	}
	return DeskOther
}

// DeskRank orders tier desks first; everything else ranks 999.
func DeskRank(name string) int {
	n := Normalize(name)
	for i, d := range deskOrder[:4] {
		if strings.Contains(n, Normalize(string(d))) {
			return i
		}
	}
	return 999
}

// ReportDesks are the vendor desks the 30-day report covers.
var ReportDesks = []Desk{DeskBeesion, DeskTenfold, DeskInvgate, DeskSharePoint}

// IsReportDesk matches a Mesa value exactly (after normalization) against ReportDesks.
func IsReportDesk(name string) bool {
	n := Normalize(name)
	for _, d := range ReportDesks {
		if n == Normalize(string(d)) {
			return true
		}
	}
	return false
}

var (
	openStates   = []string{"Abierto", "Pendiente", "En espera"}
	closedStates = []string{"Resuelto", "Rechazados", "Cancelados", "Cerrados"}
)

// IsOpen reports whether an Estado value is one of the open states.
func IsOpen(estado string) bool {
	return inNormalized(estado, openStates)
}

// IsClosed reports whether an Estado value is one of the closed states.
func IsClosed(estado string) bool {
	return inNormalized(estado, closedStates)
}

func inNormalized(v string, set []string) bool {
	n := Normalize(v)
	for _, s := range set {
		if n == Normalize(s) {
			return true
		}
	}
	return false
}
