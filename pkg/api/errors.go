package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"opsboard/pkg/auth"
	"opsboard/pkg/board"
	"opsboard/pkg/breaker"
	"opsboard/pkg/chat"
	"opsboard/pkg/checklist"
	"opsboard/pkg/drive"
	"opsboard/pkg/gapi"
	"opsboard/pkg/reports"
	"opsboard/pkg/sheets"
	"opsboard/pkg/tags"

	"github.com/danielgtaylor/huma/v2"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
)

// apiError maps a service error onto its HTTP status. Anything unknown
// came from Google and is reported as a bad gateway.
func apiError(ctx context.Context, err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrUnknownTable),
		errors.Is(err, board.ErrRowNotFound),
		errors.Is(err, tags.ErrNoRow),
		errors.Is(err, checklist.ErrNotFound),
		errors.Is(err, drive.ErrUnknownPortal),
		errors.Is(err, sheets.ErrTabNotFound),
		gapi.IsNotFound(err):
		return huma.Error404NotFound(msg)
	case errors.Is(err, checklist.ErrInvalid),
		errors.Is(err, tags.ErrEmptyName),
		errors.Is(err, drive.ErrNoID),
		errors.Is(err, chat.ErrEmptyText):
		return huma.Error400BadRequest(msg)
	case errors.Is(err, tags.ErrTagOwned),
		errors.Is(err, tags.ErrTagNotOwned):
		return huma.Error409Conflict(msg)
	case errors.Is(err, board.ErrNotEditable),
		errors.Is(err, board.ErrNoMarkColumn),
		errors.Is(err, tags.ErrNoColumns),
		errors.Is(err, sheets.ErrKeyColumnMissing),
		errors.Is(err, reports.ErrMissingColumns):
		return huma.Error422UnprocessableEntity(msg)
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, chat.ErrNoEndpoint),
		errors.Is(err, breaker.ErrCircuitOpen):
		return huma.Error503ServiceUnavailable(msg)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout(msg)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && (gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden) && !gapi.IsRateLimited(err) {
		return huma.NewError(gErr.Code, msg)
	}
	log.WithField("request_id", RequestIDFrom(ctx)).Errorf("Upstream failure: %v", err)
	return huma.Error502BadGateway(msg)
}

type errorBody struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// writeError writes a problem body shaped like huma's for handlers outside huma.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Title: http.StatusText(status), Status: status, Detail: detail}); err != nil {
		log.WithError(err).Error("Failed to encode error response")
	}
}

// statusOf returns the status apiError would choose.
func statusOf(ctx context.Context, err error) int {
	var se huma.StatusError
	if errors.As(apiError(ctx, err), &se) {
		return se.GetStatus()
	}
	return http.StatusInternalServerError
}

func gateStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrDomainNotAllowed), errors.Is(err, auth.ErrEmailUnverified):
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}
