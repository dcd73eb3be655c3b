package api

import (
	"strings"

	"opsboard/pkg/board"
	"opsboard/pkg/chat"
	"opsboard/pkg/checklist"
	"opsboard/pkg/drive"
	"opsboard/pkg/model"
	"opsboard/pkg/reports"
	"opsboard/pkg/sheets"
	"opsboard/pkg/tags"

	"github.com/danielgtaylor/huma/v2"
)

// --- tables ---

type TableInput struct {
	Table   string `path:"table" doc:"Table name: abiertos, cerrados, n3, reporte_abiertos, reporte_cerrados"`
	Dataset string `query:"dataset" doc:"all, inv (incidents) or evo (change requests)"`
	Search  string `query:"search" doc:"Accent-insensitive text search over every cell"`
	Refresh bool   `query:"refresh" doc:"Re-read the sheet before answering"`

	columns map[string][]string
}

// Resolve collects the repeated filter=column=value parameters.
func (i *TableInput) Resolve(ctx huma.Context) []error {
	u := ctx.URL()
	for _, f := range u.Query()["filter"] {
		col, val, ok := strings.Cut(f, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return []error{&huma.ErrorDetail{Location: "query.filter", Message: "expected column=value", Value: f}}
		}
		if i.columns == nil {
			i.columns = make(map[string][]string)
		}
		i.columns[col] = append(i.columns[col], val)
	}
	if _, ok := board.ParseDataset(i.Dataset); !ok {
		return []error{&huma.ErrorDetail{Location: "query.dataset", Message: "expected all, inv or evo", Value: i.Dataset}}
	}
	return nil
}

func (i *TableInput) filter() board.Filter {
	ds, _ := board.ParseDataset(i.Dataset)
	return board.Filter{Dataset: ds, Columns: i.columns, Search: i.Search}
}

type TableView struct {
	board.Snapshot
	Marks    model.MarkSet `json:"marks,omitempty"`
	Editable []string      `json:"editable,omitempty"`
}

type TableOutput struct {
	Body TableView
}

type TablePathInput struct {
	Table string `path:"table"`
}

type RefreshOutput struct {
	Body struct {
		Table     string               `json:"table"`
		Rows      int                  `json:"rows"`
		Warnings  []string             `json:"warnings,omitempty"`
		Conflicts []board.Conflict     `json:"conflicts,omitempty"`
		Pending   []board.PendingWrite `json:"pending,omitempty"`
	}
}

type RowPath struct {
	Table string `path:"table"`
	Key   string `path:"key" doc:"Value of the table's key column"`
}

type EditInput struct {
	RowPath
	Body struct {
		Set map[string]string `json:"set" doc:"Column to new value" required:"true"`
	}
}

type MarkInput struct {
	RowPath
	Body struct {
		Mark string `json:"mark" doc:"amarillo, celeste, or empty to clear"`
	}
}

type LabelOwnerInput struct {
	RowPath
	Body struct {
		Name  string `json:"name" required:"true" minLength:"1"`
		Color string `json:"color,omitempty" doc:"violeta, rosa, verde-oscuro, verde-claro or naranja"`
	}
}

type AssignLabelInput struct {
	RowPath
	Body struct {
		Name string `json:"name" required:"true" minLength:"1"`
	}
}

type WriteOutput struct {
	Body struct {
		Result  sheets.WriteResult   `json:"result"`
		Pending []board.PendingWrite `json:"pending,omitempty"`
	}
}

type LabelsOutput struct {
	Body struct {
		Labels  []tags.Label           `json:"labels"`
		Groups  []tags.Group           `json:"groups"`
		Palette map[string]model.Style `json:"palette"`
	}
}

// --- reports ---

type SummaryInput struct {
	Days string `query:"days" doc:"Window in days, or 'all'" default:"30"`
}

type SummaryOutput struct {
	Body struct {
		reports.Summary
		Created []model.DayCount `json:"created"`
	}
}

type DistributionInput struct {
	View    string `query:"view" doc:"mesa or modulo" default:"mesa"`
	Dataset string `query:"dataset" doc:"inv or evo" default:"inv"`
}

type DistributionOutput struct {
	Body reports.Distribution
}

type TicketsOutput struct {
	Body []model.Ticket
}

type InsightsOutput struct {
	Body []reports.Insight
}

// --- drive ---

type PortalInput struct {
	Portal   string `path:"portal" doc:"Portal slug, e.g. scripts-nivel-3"`
	Category string `path:"category" doc:"analisis, paso-a-paso or tutoriales"`
}

type PortalsOutput struct {
	Body struct {
		Portals    []drive.Portal   `json:"portals"`
		Categories []drive.Category `json:"categories"`
	}
}

type FolderOutput struct {
	Body struct {
		FolderID string       `json:"folderId"`
		Files    []drive.File `json:"files"`
	}
}

type UploadInput struct {
	PortalInput
	Name        string `query:"name" required:"true" minLength:"1"`
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

type ShortcutInput struct {
	PortalInput
	Body struct {
		Target string `json:"target" doc:"File id or Drive/Docs link" required:"true" minLength:"1"`
		Name   string `json:"name,omitempty"`
	}
}

type FileOutput struct {
	Body drive.File
}

type IDInput struct {
	ID string `path:"id"`
}

// --- chat ---

type ChatInput struct {
	Body struct {
		Text string `json:"text" required:"true"`
	}
}

type ChatOutput struct {
	Body chat.Reply
}

// --- checklist ---

type ChecklistListInput struct {
	Sort string `query:"sort" doc:"newest (default) or priority"`
}

type ChecklistListOutput struct {
	Body struct {
		Items    []checklist.Item `json:"items"`
		Mesas    []string         `json:"mesas"`
		Statuses any              `json:"statuses"`
	}
}

type ChecklistFields struct {
	Tema         string `json:"tema" required:"true"`
	Responsable  string `json:"responsable,omitempty"`
	Mesa         string `json:"mesa,omitempty" doc:"Nivel 1, Nivel 2 or Nivel 3"`
	Analista     string `json:"analista,omitempty"`
	Invgate      string `json:"invgate,omitempty" doc:"InvGate ticket number"`
	Detalle      string `json:"detalle,omitempty"`
	Comentarios  string `json:"comentarios,omitempty"`
	FechaEntrega string `json:"fechaEntrega,omitempty"`
	Estado       string `json:"estado,omitempty" doc:"rojo, naranja, amarillo, celeste, verde or empty"`
}

func (f ChecklistFields) item(id string) checklist.Item {
	return checklist.Item{
		ID:           id,
		Tema:         f.Tema,
		Responsable:  f.Responsable,
		Mesa:         f.Mesa,
		Analista:     f.Analista,
		Invgate:      f.Invgate,
		Detalle:      f.Detalle,
		Comentarios:  f.Comentarios,
		FechaEntrega: f.FechaEntrega,
		Estado:       f.Estado,
	}
}

type ChecklistItemInput struct {
	Body ChecklistFields
}

type ChecklistUpdateInput struct {
	ID   string `path:"id"`
	Body ChecklistFields
}

type ChecklistEstadoInput struct {
	ID   string `path:"id"`
	Body struct {
		Estado string `json:"estado"`
	}
}

type ChecklistItemOutput struct {
	Body checklist.Item
}
