package model

import (
	"fmt"
)

// Mark is the per-row colour annotation stored in the Marca column.
type Mark string

const (
	MarkNone     Mark = ""
	MarkAmarillo Mark = "amarillo"
	MarkCeleste  Mark = "celeste"
)

// ParseMark accepts "", amarillo and celeste in any case or accenting.
func ParseMark(s string) (Mark, error) {
	switch m := Mark(Normalize(s)); m {
	case MarkNone, MarkAmarillo, MarkCeleste:
		return m, nil
	}
	return MarkNone, fmt.Errorf("unknown mark %q", s)
}

type Style struct {
	Label      string `json:"label,omitempty"`
	Background string `json:"bg"`
	Border     string `json:"border"`
	Text       string `json:"text"`
}

// MarkSet holds the label and colours each mark has on one table.
type MarkSet map[Mark]Style

var AbiertosMarks = MarkSet{
	MarkAmarillo: {Label: "Pruebas de Usuario", Background: "#FFFDE7", Border: "#FBC02D", Text: "#8d6e00"},
	MarkCeleste:  {Label: "Implementación", Background: "#E3F2FD", Border: "#398FFF", Text: "#1c4e9a"},
}

var N3Marks = MarkSet{
	MarkAmarillo: {Label: "En prueba", Background: "#FFFDE7", Border: "#FBC02D", Text: "#8d6e00"},
	MarkCeleste:  {Label: "Para implementar", Background: "#E3F2FD", Border: "#398FFF", Text: "#1c4e9a"},
}
