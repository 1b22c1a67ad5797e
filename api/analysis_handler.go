package api

import (
	"net/http"
	"strconv"

	"projector/models"
	"projector/service"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// AnalysisHandler serves the analysis lifecycle routes
type AnalysisHandler struct {
	analyses service.AnalysisService
}

func NewAnalysisHandler(analyses service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analyses: analyses}
}

func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	var input models.AnalysisInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	analysis, err := h.analyses.Create(r.Context(), principal.UserID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, analysis)
}

func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	analyses, err := h.analyses.List(r.Context(), principal.Scope())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.authorize(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *AnalysisHandler) Update(w http.ResponseWriter, r *http.Request) {
	var update models.AnalysisUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, r, err)
		return
	}

	current, ok := h.authorize(w, r)
	if !ok {
		return
	}

	analysis, err := h.analyses.Update(r.Context(), current.ID, update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.analyses.Delete(r.Context(), analysis.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnalysisHandler) Staging(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.authorize(w, r)
	if !ok {
		return
	}

	rows, err := h.analyses.GetStaging(r.Context(), analysis.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *AnalysisHandler) Permanent(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.authorize(w, r)
	if !ok {
		return
	}

	rows, err := h.analyses.GetPermanent(r.Context(), analysis.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *AnalysisHandler) Promote(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.authorize(w, r)
	if !ok {
		return
	}

	result, err := h.analyses.Promote(r.Context(), analysis.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// authorize loads the analysis named in the path. Callers who may not access it get 404.
func (h *AnalysisHandler) authorize(w http.ResponseWriter, r *http.Request) (*models.Analysis, bool) {
	id, err := analysisID(r)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}

	analysis, err := h.analyses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}

	principal, _ := PrincipalFrom(r.Context())
	if !principal.CanAccess(analysis.UserID) {
		loggerFrom(r).WithFields(log.Fields{
			"analysisID": id,
			"userID":     principal.UserID,
		}).Info("Denied access to analysis of another user")
		writeMessage(w, http.StatusNotFound, "analysis not found")
		return nil, false
	}
	return analysis, true
}

func analysisID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &service.ValidationError{Field: "id", Reason: "must be a positive integer"}
	}
	return id, nil
}
