package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"opsboard/pkg/board"
	"opsboard/pkg/model"
	"opsboard/pkg/reports"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func registerReportRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "report-summary",
		Method:      http.MethodGet,
		Path:        "/v1/reports/summary",
		Summary:     "Created and closed tickets of the vendor desks in the window",
		Tags:        []string{"reports"},
	}, h.Summary)

	huma.Register(api, huma.Operation{
		OperationID: "report-distribution",
		Method:      http.MethodGet,
		Path:        "/v1/reports/distribution",
		Summary:     "Open tickets by desk or module",
		Tags:        []string{"reports"},
	}, h.Distribution)

	huma.Register(api, huma.Operation{
		OperationID: "report-escalations",
		Method:      http.MethodGet,
		Path:        "/v1/reports/escalations",
		Summary:     "Tickets flagged as possible level-3 escalations",
		Tags:        []string{"reports"},
	}, h.Escalations)

	huma.Register(api, huma.Operation{
		OperationID: "report-insights",
		Method:      http.MethodGet,
		Path:        "/v1/reports/insights",
		Summary:     "Rows of the insight tab",
		Tags:        []string{"reports"},
	}, h.Insights)
}

func (h *Handler) Summary(ctx context.Context, in *SummaryInput) (*SummaryOutput, error) {
	days, err := model.ParseWindow(in.Days)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	s, err := h.svc.Summary(ctx, days)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	series, err := h.svc.CreatedSeries(ctx, days)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	out := &SummaryOutput{}
	out.Body.Summary = s
	out.Body.Created = series
	return out, nil
}

func (h *Handler) Distribution(ctx context.Context, in *DistributionInput) (*DistributionOutput, error) {
	view, err := reports.ParseView(in.View)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	ds, ok := board.ParseDataset(in.Dataset)
	if !ok {
		return nil, huma.Error400BadRequest(fmt.Sprintf("invalid dataset %q", in.Dataset))
	}
	d, err := h.svc.Distribution(ctx, view, ds)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &DistributionOutput{Body: d}, nil
}

func (h *Handler) Escalations(ctx context.Context, _ *struct{}) (*TicketsOutput, error) {
	t, err := h.svc.Escalations(ctx)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &TicketsOutput{Body: t}, nil
}

func (h *Handler) Insights(ctx context.Context, _ *struct{}) (*InsightsOutput, error) {
	in, err := h.svc.Insights(ctx)
	if err != nil {
		return nil, apiError(ctx, err)
	}
	return &InsightsOutput{Body: in}, nil
}

// ExportSummary streams the summary as an xlsx workbook.
func (h *Handler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := reports.DefaultWindow
	if q := r.URL.Query().Get("days"); q != "" {
		d, err := model.ParseWindow(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		days = d
	}
	s, err := h.svc.Summary(ctx, days)
	if err != nil {
		writeError(w, statusOf(ctx, err), err.Error())
		return
	}

	var buf bytes.Buffer
	if err := reports.ExportXLSX(&buf, s); err != nil {
		log.WithError(err).Error("Export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxMime)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reporte-%s.xlsx"`, s.GeneratedAt.Format("2006-01-02")))
	w.Write(buf.Bytes())
}
