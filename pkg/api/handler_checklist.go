package api

import (
	"context"
	"net/http"

	"opsboard/pkg/checklist"

	"github.com/danielgtaylor/huma/v2"
)

func registerChecklistRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-checklist",
		Method:      http.MethodGet,
		Path:        "/v1/checklist",
		Summary:     "Checklist items, newest first",
		Tags:        []string{"checklist"},
	}, h.ListChecklist)

	huma.Register(api, huma.Operation{
		OperationID:   "create-checklist-item",
		Method:        http.MethodPost,
		Path:          "/v1/checklist",
		Summary:       "Add a checklist item",
		Tags:          []string{"checklist"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateChecklistItem)

	huma.Register(api, huma.Operation{
		OperationID: "update-checklist-item",
		Method:      http.MethodPut,
		Path:        "/v1/checklist/{id}",
		Summary:     "Replace a checklist item",
		Tags:        []string{"checklist"},
	}, h.UpdateChecklistItem)

	huma.Register(api, huma.Operation{
		OperationID: "set-checklist-estado",
		Method:      http.MethodPut,
		Path:        "/v1/checklist/{id}/estado",
		Summary:     "Set the status colour of an item",
		Tags:        []string{"checklist"},
	}, h.SetChecklistEstado)

	huma.Register(api, huma.Operation{
		OperationID: "delete-checklist-item",
		Method:      http.MethodDelete,
		Path:        "/v1/checklist/{id}",
		Summary:     "Delete a checklist item",
		Tags:        []string{"checklist"},
	}, h.DeleteChecklistItem)
}

func (h *Handler) ListChecklist(ctx context.Context, in *ChecklistListInput) (*ChecklistListOutput, error) {
	store, err := h.svc.Checklist()
	if err != nil {
		return nil, apiError(ctx, err)
	}
	items, err := store.List(ctx)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	switch in.Sort {
	case "", "newest":
	case "priority":
		checklist.SortByPriority(items)
	default:
		return nil, huma.Error400BadRequest("sort must be newest or priority")
	}
	out := &ChecklistListOutput{}
	out.Body.Items = items
	out.Body.Mesas = checklist.Mesas
	out.Body.Statuses = checklist.Statuses
	return out, nil
}

func (h *Handler) CreateChecklistItem(ctx context.Context, in *ChecklistItemInput) (*ChecklistItemOutput, error) {
	store, err := h.svc.Checklist()
	if err != nil {
		return nil, apiError(ctx, err)
	}
	it, err := store.Create(ctx, in.Body.item(""))
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &ChecklistItemOutput{Body: it}, nil
}

func (h *Handler) UpdateChecklistItem(ctx context.Context, in *ChecklistUpdateInput) (*ChecklistItemOutput, error) {
	store, err := h.svc.Checklist()
	if err != nil {
		return nil, apiError(ctx, err)
	}
	it, err := store.Update(ctx, in.Body.item(in.ID))
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &ChecklistItemOutput{Body: it}, nil
}

func (h *Handler) SetChecklistEstado(ctx context.Context, in *ChecklistEstadoInput) (*ChecklistItemOutput, error) {
	store, err := h.svc.Checklist()
	if err != nil {
		return nil, apiError(ctx, err)
	}
	if err := store.SetEstado(ctx, in.ID, in.Body.Estado); err != nil {
		return nil, apiError(ctx, err)
	}
	it, err := store.Get(ctx, in.ID)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &ChecklistItemOutput{Body: it}, nil
}

func (h *Handler) DeleteChecklistItem(ctx context.Context, in *IDInput) (*struct{}, error) {
	store, err := h.svc.Checklist()
	if err != nil {
		return nil, apiError(ctx, err)
	}
	if err := store.Delete(ctx, in.ID); err != nil {
		return nil, apiError(ctx, err)
	}
	return nil, nil
}
