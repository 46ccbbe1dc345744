package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nordrein/webshop/internal/leads"
)

type LeadsHandler struct {
	repo leads.Repository
}

func NewLeadsHandler(repo leads.Repository) *LeadsHandler {
	return &LeadsHandler{repo: repo}
}

// POST /api/v1/leads
func (h *LeadsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var lead leads.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	lead.ID = ""

	if err := lead.Validate(); err != nil {
		var verr *leads.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, "validation_error", verr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "validation_error", "invalid lead")
		return
	}

	if err := h.repo.Submit(r.Context(), &lead); err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, lead)
}
