package model

import (
	"time"

	"opsboard/pkg/sheets"
)

// Schema names the headers carrying the fields the dashboard uses.
// An empty field means the table has no such column.
type Schema struct {
	Key        string
	Estado     string
	Tipo       string
	Mesa       string
	Modulo     string
	Agente     string
	Prioridad  string
	Asunto     string
	Created    string
	Closed     string
	Mark       string
	Label      string
	LabelOwner string
	LabelColor string
	TicketN3   string
	Comment    string
	Escalation string
}

var AbiertosSchema = Schema{
	Key:        "Nro",
	Estado:     "Estado",
	Tipo:       "Tipo",
	Mesa:       "Mesa",
	Modulo:     "Módulo",
	Agente:     "Agente asignado",
	Prioridad:  "Prioridad",
	Asunto:     "Asunto",
	Created:    "Fecha de creación",
	Closed:     "Fecha fin",
	Mark:       "Marca",
	Label:      "Etiqueta",
	LabelOwner: "Etiqueta Madre",
	LabelColor: "Etiqueta Color",
	TicketN3:   "Ticket N3",
	Comment:    "Comentario",
	Escalation: "Escalamiento",
}

var CerradosSchema = Schema{
	Key:       "Nro",
	Estado:    "Estado",
	Tipo:      "Tipo",
	Mesa:      "Mesa asignada",
	Modulo:    "Módulo",
	Agente:    "Agente asignado",
	Prioridad: "Prioridad",
	Asunto:    "Asunto",
	Created:   "Fecha de creación",
	Closed:    "Fecha fin",
}

var N3Schema = Schema{
	Key:       "Identificador de Caso",
	Estado:    "Estado",
	Prioridad: "Prioridad",
	Asunto:    "Asunto",
	Created:   "Fecha de creación",
	Mark:      "Marca",
}

func (s *Schema) fields() []*string {
	return []*string{
		&s.Key, &s.Estado, &s.Tipo, &s.Mesa, &s.Modulo, &s.Agente, &s.Prioridad, &s.Asunto,
		&s.Created, &s.Closed, &s.Mark, &s.Label, &s.LabelOwner, &s.LabelColor,
		&s.TicketN3, &s.Comment, &s.Escalation,
	}
}

// Columns returns the mapped headers in field order.
func (s Schema) Columns() []string {
	var out []string
	for _, c := range s.fields() {
		if *c != "" {
			out = append(out, *c)
		}
	}
	return out
}

// Resolve returns s with each header spelled as it appears in t, matched
// like sheets.Table.Index. Headers t lacks are left unchanged.
func (s Schema) Resolve(t *sheets.Table) Schema {
	for _, f := range s.fields() {
		if i := t.Index(*f); i >= 0 {
			*f = t.Headers[i]
		}
	}
	return s
}

// Ticket is a typed view of one row. Columns outside the schema are kept
// in Extra so schema drift in the sheet is not lost.
type Ticket struct {
	Row        int               `json:"row"`
	Key        string            `json:"key"`
	Estado     string            `json:"estado,omitempty"`
	Tipo       string            `json:"tipo,omitempty"`
	Mesa       string            `json:"mesa,omitempty"`
	Modulo     string            `json:"modulo,omitempty"`
	Agente     string            `json:"agente,omitempty"`
	Prioridad  string            `json:"prioridad,omitempty"`
	Asunto     string            `json:"asunto,omitempty"`
	Created    *time.Time        `json:"created,omitempty"`
	Closed     *time.Time        `json:"closed,omitempty"`
	Mark       Mark              `json:"mark,omitempty"`
	Label      string            `json:"label,omitempty"`
	LabelOwner bool              `json:"labelOwner,omitempty"`
	LabelColor string            `json:"labelColor,omitempty"`
	TicketN3   string            `json:"ticketN3,omitempty"`
	Comment    string            `json:"comment,omitempty"`
	Escalation string            `json:"escalation,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// IsChangeRequest reports whether the ticket is an evolutivo.
func (t Ticket) IsChangeRequest() bool {
	return IsChangeRequest(t.Tipo)
}

// Ticket maps a row through the schema. Dates are parsed in loc.
func (s Schema) Ticket(r sheets.Row, loc *time.Location) Ticket {
	get := func(h string) string {
		if h == "" {
			return ""
		}
		return r.Get(h)
	}

	t := Ticket{
		Row:        r.Number,
		Key:        get(s.Key),
		Estado:     get(s.Estado),
		Tipo:       get(s.Tipo),
		Mesa:       get(s.Mesa),
		Modulo:     get(s.Modulo),
		Agente:     get(s.Agente),
		Prioridad:  get(s.Prioridad),
		Asunto:     get(s.Asunto),
		Mark:       Mark(Normalize(get(s.Mark))),
		Label:      get(s.Label),
		LabelOwner: IsTruthy(get(s.LabelOwner)),
		LabelColor: get(s.LabelColor),
		TicketN3:   get(s.TicketN3),
		Comment:    get(s.Comment),
		Escalation: get(s.Escalation),
	}
	if d, ok := ParseDateIn(get(s.Created), loc); ok {
		t.Created = &d
	}
	if d, ok := ParseDateIn(get(s.Closed), loc); ok {
		t.Closed = &d
	}

	mapped := make(map[string]bool)
	for _, c := range s.Columns() {
		mapped[c] = true
	}
	for h, v := range r.Cells {
		if mapped[h] {
			continue
		}
		if t.Extra == nil {
			t.Extra = make(map[string]string)
		}
		t.Extra[h] = v
	}
	return t
}

func (s Schema) Tickets(rows []sheets.Row, loc *time.Location) []Ticket {
	out := make([]Ticket, len(rows))
	for i, r := range rows {
		out[i] = s.Ticket(r, loc)
	}
	return out
}
