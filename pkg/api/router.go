package api

import (
	"net/http"

	"opsboard/pkg/auth"
	"opsboard/pkg/config"
	"opsboard/pkg/metrics"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const Version = "1.0.0"

// GetRouter builds the HTTP handler: huma operations on a chi router plus
// the plain routes for health, metrics and binary downloads. A nil gate
// leaves /v1 open.
func GetRouter(svc *Service, gate *auth.Gate) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging)
	r.Use(Recovery)
	r.Use(metrics.Metrics)
	r.Use(Gate(gate))
	return applyRoutes(r, NewHandler(svc))
}

// NewGate builds the caller check from the Google settings. Without a
// client id there is nothing to check the audience against, so the API
// stays open unless token verification is explicitly skipped.
func NewGate(cfg *config.Config) *auth.Gate {
	g := cfg.Store.Google
	policy := auth.DomainPolicy{Allowed: g.AllowedDomains}
	switch {
	case g.SkipTokenVerify:
		log.Warn("ID token signatures are not verified")
		return &auth.Gate{Verifier: auth.UnverifiedVerifier{}, Policy: policy}
	case g.ClientID == "":
		log.Warn("No Google client id configured, the API is open")
		return nil
	}
	return &auth.Gate{Verifier: auth.GoogleVerifier{ClientID: g.ClientID}, Policy: policy}
}

func applyRoutes(r chi.Router, h *Handler) chi.Router {
	r.Get("/healthz", getHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/reports/export.xlsx", h.ExportSummary)
	r.Get("/v1/drive/files/{id}/content", h.DownloadFile)

	api := humachi.New(r, huma.DefaultConfig("opsboard", Version))
	registerTableRoutes(api, h)
	registerReportRoutes(api, h)
	registerDriveRoutes(api, h)
	registerChatRoutes(api, h)
	registerChecklistRoutes(api, h)
	return r
}

func getHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
