package httptransport

import (
	"net/http"

	geomodels "gazetteer/internal/geo/models"
	geoservice "gazetteer/internal/geo/service"
	id "gazetteer/pkg/domain"
	dErrors "gazetteer/pkg/domain-errors"
)

type generatePathRequest struct {
	CountryCode string            `json:"country_code"`
	Levels      map[int]id.UnitID `json:"levels"`
}

type generatePathResponse struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

func (h *Handler) handleGeneratePath(w http.ResponseWriter, r *http.Request) {
	var req generatePathRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	country, err := id.ParseCountryCode(req.CountryCode)
	if err != nil {
		writeError(w, err)
		return
	}
	path, err := h.geo.GeneratePath(r.Context(), geomodels.GeographyHierarchy{
		CountryCode: country,
		LevelValues: req.Levels,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generatePathResponse{Path: path.String(), Depth: path.Depth()})
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	country, err := id.ParseCountryCode(q.Get("country"))
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "parse country"))
		return
	}
	ordinal, err := queryInt(r, "ordinal")
	if err != nil {
		writeError(w, err)
		return
	}
	var parentID id.UnitID
	if raw := q.Get("parent_id"); raw != "" {
		parentID, err = id.ParseUnitID(raw)
		if err != nil {
			writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "parse parent_id"))
			return
		}
	}
	ranked, err := h.matcher.FindCandidates(r.Context(), name, country, ordinal, parentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (h *Handler) handleGetDescriptor(w http.ResponseWriter, r *http.Request) {
	country, err := countryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	descriptor, err := h.geo.Descriptor(r.Context(), country)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

type putDescriptorRequest struct {
	Levels []geomodels.LevelDescriptor `json:"levels"`
}

func (h *Handler) handlePutDescriptor(w http.ResponseWriter, r *http.Request) {
	country, err := countryParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req putDescriptorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	descriptor, err := h.geo.PutDescriptor(r.Context(), country, req.Levels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

func (h *Handler) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	unitID, err := unitIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.geo.GetUnit(r.Context(), unitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

type createUnitRequest struct {
	CountryCode string            `json:"country_code"`
	Ordinal     int               `json:"ordinal"`
	Name        string            `json:"name"`
	Names       map[string]string `json:"names,omitempty"`
	ParentID    id.UnitID         `json:"parent_id,omitempty"`
}

func (h *Handler) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	country, err := id.ParseCountryCode(req.CountryCode)
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.geo.CreateUnit(r.Context(), country, req.Ordinal, req.Name, req.Names, req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

type importUnitsRequest struct {
	CountryCode string                  `json:"country_code"`
	Units       []geoservice.ImportUnit `json:"units"`
}

func (h *Handler) handleImportUnits(w http.ResponseWriter, r *http.Request) {
	var req importUnitsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	country, err := id.ParseCountryCode(req.CountryCode)
	if err != nil {
		writeError(w, err)
		return
	}
	units, err := h.geo.ImportUnits(r.Context(), country, req.Units)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"created": len(units), "units": units})
}

type renameUnitRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleRenameUnit(w http.ResponseWriter, r *http.Request) {
	unitID, err := unitIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req renameUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.geo.RenameUnit(r.Context(), unitID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *Handler) handleDeactivateUnit(w http.ResponseWriter, r *http.Request) {
	unitID, err := unitIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := h.geo.DeactivateUnit(r.Context(), unitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}
