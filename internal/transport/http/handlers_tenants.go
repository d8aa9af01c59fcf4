package httptransport

import (
	"net/http"

	id "gazetteer/pkg/domain"
)

type registerTenantRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleRegisterTenant(w http.ResponseWriter, r *http.Request) {
	var req registerTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	tenant, err := h.tenants.Register(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (h *Handler) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func (h *Handler) handleSuspendTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tenant, err := h.tenants.Suspend(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *Handler) handleReactivateTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tenant, err := h.tenants.Reactivate(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

// handleSyncTenant triggers a sync run synchronously. Scheduled runs go
// through the background worker; this endpoint exists for onboarding and
// operator-driven retries after partial failures.
func (h *Handler) handleSyncTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	country, err := countryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.sync.SyncTenant(r.Context(), tenantID, country)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListReplicas(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	country, err := countryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	replicas, err := h.sync.ListReplicas(r.Context(), tenantID, country)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"replicas": replicas})
}

type addCustomUnitRequest struct {
	Name     string    `json:"name"`
	ParentID id.UnitID `json:"parent_id"`
}

func (h *Handler) handleAddCustomUnit(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	country, err := countryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req addCustomUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	replica, err := h.sync.AddCustomUnit(r.Context(), tenantID, country, req.Name, req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, replica)
}
