package httptransport

import (
	"net/http"

	"gazetteer/internal/candidate/models"
	id "gazetteer/pkg/domain"
)

type submitCandidateRequest struct {
	ProposedName   string      `json:"proposed_name"`
	CountryCode    string      `json:"country_code"`
	Ordinal        int         `json:"ordinal"`
	ParentID       id.UnitID   `json:"parent_id,omitempty"`
	SourceTenantID id.TenantID `json:"source_tenant_id"`
}

func (h *Handler) handleSubmitCandidate(w http.ResponseWriter, r *http.Request) {
	var req submitCandidateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	country, err := id.ParseCountryCode(req.CountryCode)
	if err != nil {
		writeError(w, err)
		return
	}
	candidate, err := h.candidates.Submit(r.Context(), req.ProposedName, country, req.Ordinal, req.ParentID, req.SourceTenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, candidate)
}

func (h *Handler) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, err := candidateIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	candidate, err := h.candidates.Get(r.Context(), candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	// Both filters are optional; empty means unfiltered.
	var country id.CountryCode
	if raw := q.Get("country"); raw != "" {
		parsed, err := id.ParseCountryCode(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		country = parsed
	}
	status := models.ReviewStatus(q.Get("status"))
	candidates, err := h.candidates.List(r.Context(), country, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}

type reviewRequest struct {
	ReviewerID   id.ReviewerID `json:"reviewer_id"`
	TargetUnitID id.UnitID     `json:"target_unit_id,omitempty"` // approve-merge only
	Reason       string        `json:"reason,omitempty"`         // reject only
}

func (h *Handler) handleBeginReview(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(req reviewRequest, candidateID id.CandidateID) (*models.GeoCandidate, error) {
		return h.candidates.BeginReview(r.Context(), candidateID, req.ReviewerID)
	})
}

func (h *Handler) handleApproveAsNew(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(req reviewRequest, candidateID id.CandidateID) (*models.GeoCandidate, error) {
		return h.candidates.ApproveAsNew(r.Context(), candidateID, req.ReviewerID)
	})
}

func (h *Handler) handleApproveAsMerge(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(req reviewRequest, candidateID id.CandidateID) (*models.GeoCandidate, error) {
		return h.candidates.ApproveAsMerge(r.Context(), candidateID, req.ReviewerID, req.TargetUnitID)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.reviewAction(w, r, func(req reviewRequest, candidateID id.CandidateID) (*models.GeoCandidate, error) {
		return h.candidates.Reject(r.Context(), candidateID, req.ReviewerID, req.Reason)
	})
}

func (h *Handler) reviewAction(w http.ResponseWriter, r *http.Request, act func(reviewRequest, id.CandidateID) (*models.GeoCandidate, error)) {
	candidateID, err := candidateIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	candidate, err := act(req, candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}
