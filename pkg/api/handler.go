package api

import (
	"context"
	"net/http"

	"opsboard/pkg/board"
	"opsboard/pkg/model"
	"opsboard/pkg/sheets"
	"opsboard/pkg/tags"

	"github.com/danielgtaylor/huma/v2"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func registerTableRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-table",
		Method:      http.MethodGet,
		Path:        "/v1/tables/{table}",
		Summary:     "Rows, filter options, warnings and conflicts of a table",
		Description: "Filter with repeated filter=column=value parameters; values of one column are OR-ed.",
		Tags:        []string{"tables"},
	}, h.GetTable)

	huma.Register(api, huma.Operation{
		OperationID: "refresh-table",
		Method:      http.MethodPost,
		Path:        "/v1/tables/{table}/refresh",
		Summary:     "Re-read a table and reconcile pending writes",
		Tags:        []string{"tables"},
	}, h.RefreshTable)

	huma.Register(api, huma.Operation{
		OperationID: "edit-row",
		Method:      http.MethodPatch,
		Path:        "/v1/tables/{table}/rows/{key}",
		Summary:     "Write editable columns of a row",
		Tags:        []string{"tables"},
	}, h.EditRow)

	huma.Register(api, huma.Operation{
		OperationID: "mark-row",
		Method:      http.MethodPut,
		Path:        "/v1/tables/{table}/rows/{key}/mark",
		Summary:     "Set or clear the mark of a row",
		Tags:        []string{"tables"},
	}, h.MarkRow)

	huma.Register(api, huma.Operation{
		OperationID: "create-label-owner",
		Method:      http.MethodPost,
		Path:        "/v1/tables/{table}/rows/{key}/label-owner",
		Summary:     "Make the row the owner of a new label",
		Tags:        []string{"labels"},
	}, h.CreateLabelOwner)

	huma.Register(api, huma.Operation{
		OperationID: "remove-label-owner",
		Method:      http.MethodDelete,
		Path:        "/v1/tables/{table}/rows/{key}/label-owner",
		Summary:     "Delete the row's label and every reference to it",
		Tags:        []string{"labels"},
	}, h.RemoveLabelOwner)

	huma.Register(api, huma.Operation{
		OperationID: "assign-label",
		Method:      http.MethodPut,
		Path:        "/v1/tables/{table}/rows/{key}/label",
		Summary:     "Reference an owned label from a row",
		Tags:        []string{"labels"},
	}, h.AssignLabel)

	huma.Register(api, huma.Operation{
		OperationID: "clear-label",
		Method:      http.MethodDelete,
		Path:        "/v1/tables/{table}/rows/{key}/label",
		Summary:     "Remove the label reference of a row",
		Tags:        []string{"labels"},
	}, h.ClearLabel)

	huma.Register(api, huma.Operation{
		OperationID: "list-labels",
		Method:      http.MethodGet,
		Path:        "/v1/tables/{table}/labels",
		Summary:     "Owned labels and the rows under each",
		Tags:        []string{"labels"},
	}, h.ListLabels)
}

func (h *Handler) GetTable(ctx context.Context, in *TableInput) (*TableOutput, error) {
	b, err := h.svc.Board(ctx, in.Table, in.Refresh)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	out := &TableOutput{}
	out.Body.Snapshot = b.Snapshot(in.filter(), h.svc.specs[b.Name()].Filters...)
	out.Body.Marks = b.Marks()
	out.Body.Editable = b.Editable()
	return out, nil
}

func (h *Handler) RefreshTable(ctx context.Context, in *TablePathInput) (*RefreshOutput, error) {
	b, err := h.svc.Board(ctx, in.Table, true)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	snap := b.Snapshot(board.Filter{})
	out := &RefreshOutput{}
	out.Body.Table = snap.Table
	out.Body.Rows = len(snap.Rows)
	out.Body.Warnings = snap.Warnings
	out.Body.Conflicts = snap.Conflicts
	out.Body.Pending = snap.Pending
	return out, nil
}

// write runs op against the named board and reports the result with the
// writes still waiting for confirmation.
func (h *Handler) write(ctx context.Context, table string, op func(*board.Board) (sheets.WriteResult, error)) (*WriteOutput, error) {
	b, err := h.svc.Board(ctx, table, false)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	res, err := op(b)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	out := &WriteOutput{}
	out.Body.Result = res
	out.Body.Pending = b.Pending()
	return out, nil
}

func (h *Handler) EditRow(ctx context.Context, in *EditInput) (*WriteOutput, error) {
	return h.write(ctx, in.Table, func(b *board.Board) (sheets.WriteResult, error) {
		return b.Edit(ctx, in.Key, in.Body.Set)
	})
}

func (h *Handler) MarkRow(ctx context.Context, in *MarkInput) (*WriteOutput, error) {
	m, err := model.ParseMark(in.Body.Mark)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return h.write(ctx, in.Table, func(b *board.Board) (sheets.WriteResult, error) {
		return b.Mark(ctx, in.Key, m)
	})
}

func (h *Handler) CreateLabelOwner(ctx context.Context, in *LabelOwnerInput) (*WriteOutput, error) {
	return h.write(ctx, in.Table, func(b *board.Board) (sheets.WriteResult, error) {
		return b.CreateLabelOwner(ctx, in.Key, in.Body.Name, in.Body.Color)
	})
}

func (h *Handler) RemoveLabelOwner(ctx context.Context, in *RowPath) (*WriteOutput, error) {
	return h.write(ctx, in.Table, func(b *board.Board) (sheets.WriteResult, error) {
		return b.RemoveLabelOwner(ctx, in.Key)
	})
}

func (h *Handler) AssignLabel(ctx context.Context, in *AssignLabelInput) (*WriteOutput, error) {
	return h.write(ctx, in.Table, func(b *board.Board) (sheets.WriteResult, error) {
		return b.AssignLabel(ctx, in.Key, in.Body.Name)
	})
}

func (h *Handler) ClearLabel(ctx context.Context, in *RowPath) (*WriteOutput, error) {
	return h.write(ctx, in.Table, func(b *board.Board) (sheets.WriteResult, error) {
		return b.ClearLabel(ctx, in.Key)
	})
}

func (h *Handler) ListLabels(ctx context.Context, in *TablePathInput) (*LabelsOutput, error) {
	b, err := h.svc.Board(ctx, in.Table, false)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	out := &LabelsOutput{}
	out.Body.Labels, out.Body.Groups = b.Labels()
	out.Body.Palette = tags.Palette
	return out, nil
}
