package api

import (
	"opsboard/pkg/config"
	"opsboard/pkg/model"
)

// TableSpec describes how one configured table is shown and edited.
type TableSpec struct {
	Schema   model.Schema
	Marks    model.MarkSet
	Editable []string
	// Filters are the columns offered as multi-select filters.
	Filters []string
}

var TableSpecs = map[string]TableSpec{
	config.Abiertos: {
		Schema:   model.AbiertosSchema,
		Marks:    model.AbiertosMarks,
		Editable: []string{"Ticket N3", "Comentario"},
		Filters:  []string{"Estado", "Mesa", "Módulo", "Agente asignado", "Prioridad", "Tipo"},
	},
	config.Cerrados: {
		Schema:  model.CerradosSchema,
		Filters: []string{"Estado", "Mesa asignada", "Módulo", "Agente asignado", "Tipo"},
	},
	config.N3: {
		Schema:   model.N3Schema,
		Marks:    model.N3Marks,
		Editable: []string{"Estado Heber", "TIPO DE IMPACTO", "IMPACTO OPERATIVO"},
		Filters:  []string{"Estado", "Prioridad", "Estado Heber", "TIPO DE IMPACTO"},
	},
	config.ReporteAbiertos: {
		Schema:  plain(model.AbiertosSchema),
		Filters: []string{"Estado", "Mesa", "Módulo"},
	},
	config.ReporteCerrados: {
		Schema:  model.CerradosSchema,
		Filters: []string{"Estado", "Mesa asignada", "Módulo"},
	},
}

// plain drops the columns only the working tabs carry.
func plain(s model.Schema) model.Schema {
	s.Mark, s.Label, s.LabelOwner, s.LabelColor = "", "", "", ""
	s.TicketN3, s.Comment, s.Escalation = "", "", ""
	return s
}
