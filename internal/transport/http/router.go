// Package httptransport is the thin HTTP layer over the domain services. It
// decodes requests, delegates, and translates domain errors into JSON
// responses; no business logic lives here.
package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	candidateservice "gazetteer/internal/candidate/service"
	geoservice "gazetteer/internal/geo/service"
	"gazetteer/internal/match"
	"gazetteer/internal/platform/metrics"
	"gazetteer/internal/platform/middleware"
	tenantservice "gazetteer/internal/tenant/service"
	syncservice "gazetteer/internal/tenantsync/service"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

// Handler carries the domain services the routes delegate to.
type Handler struct {
	geo        *geoservice.Service
	matcher    *match.Engine
	candidates *candidateservice.Service
	tenants    *tenantservice.Service
	sync       *syncservice.Service
	logger     *slog.Logger
}

func NewHandler(geo *geoservice.Service, matcher *match.Engine, candidates *candidateservice.Service, tenants *tenantservice.Service, sync *syncservice.Service, logger *slog.Logger) *Handler {
	return &Handler{geo: geo, matcher: matcher, candidates: candidates, tenants: tenants, sync: sync, logger: logger}
}

// NewRouter wires the full route tree with the shared middleware chain.
// Admin routes mutate canonical geography and tenant lifecycle; they sit
// behind the shared-secret token. httpMetrics may be nil in tests.
func NewRouter(h *Handler, adminToken string, httpMetrics *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(h.logger))
	if httpMetrics != nil {
		r.Use(middleware.Metrics(httpMetrics))
	}
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	h.Register(r, adminToken)
	return r
}

// Register mounts the feature routes on an existing router.
func (h *Handler) Register(r chi.Router, adminToken string) {
	r.Route("/geo", func(r chi.Router) {
		r.Post("/path", h.handleGeneratePath)
		r.Get("/match", h.handleMatch)
		r.Get("/countries/{country}/descriptor", h.handleGetDescriptor)
		r.Get("/units/{unitID}", h.handleGetUnit)

		r.Route("/candidates", func(r chi.Router) {
			r.Post("/", h.handleSubmitCandidate)
			r.Get("/", h.handleListCandidates)
			r.Get("/{candidateID}", h.handleGetCandidate)
			r.Post("/{candidateID}/begin-review", h.handleBeginReview)
			r.Post("/{candidateID}/approve-new", h.handleApproveAsNew)
			r.Post("/{candidateID}/approve-merge", h.handleApproveAsMerge)
			r.Post("/{candidateID}/reject", h.handleReject)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminToken(adminToken))
			r.Put("/countries/{country}/descriptor", h.handlePutDescriptor)
			r.Post("/units", h.handleCreateUnit)
			r.Post("/units/import", h.handleImportUnits)
			r.Post("/units/{unitID}/rename", h.handleRenameUnit)
			r.Post("/units/{unitID}/deactivate", h.handleDeactivateUnit)
		})
	})

	r.Route("/tenants", func(r chi.Router) {
		r.Post("/", h.handleRegisterTenant)
		r.Get("/", h.handleListTenants)
		r.Post("/{tenantID}/sync/{country}", h.handleSyncTenant)
		r.Get("/{tenantID}/replicas/{country}", h.handleListReplicas)
		r.Post("/{tenantID}/replicas/{country}/custom", h.handleAddCustomUnit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminToken(adminToken))
			r.Post("/{tenantID}/suspend", h.handleSuspendTenant)
			r.Post("/{tenantID}/reactivate", h.handleReactivateTenant)
		})
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates the error chain into a JSON envelope. Domain error
// messages are written as-is; they are field-attributable by construction so
// end users can correct their input.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "decode request body")
	}
	return nil
}

func countryParam(r *http.Request) (id.CountryCode, error) {
	country, err := id.ParseCountryCode(chi.URLParam(r, "country"))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "parse country code")
	}
	return country, nil
}

func unitIDParam(r *http.Request) (id.UnitID, error) {
	raw := chi.URLParam(r, "unitID")
	unitID, err := id.ParseUnitID(raw)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "parse unit id")
	}
	return unitID, nil
}

func tenantIDParam(r *http.Request) (id.TenantID, error) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		return id.TenantID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "parse tenant id")
	}
	return tenantID, nil
}

func candidateIDParam(r *http.Request) (id.CandidateID, error) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		return id.CandidateID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "parse candidate id")
	}
	return candidateID, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "query parameter %q is required", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "query parameter %q must be an integer", key)
	}
	return n, nil
}
