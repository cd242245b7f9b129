package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diewo77/facturacion/internal/httpx"
	"github.com/diewo77/facturacion/internal/models"
	"github.com/diewo77/facturacion/internal/services"
	"github.com/diewo77/facturacion/internal/validation"
)

// OrganizationHandler exposes the issuer record consumed by document
// rendering.
type OrganizationHandler struct {
	Org *services.OrganizationService
}

func NewOrganizationHandler(org *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{Org: org}
}

// Get: GET /organization
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.Org.Get()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

// Save: PUT /organization
func (h *OrganizationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var org models.Organization
	if err := json.NewDecoder(r.Body).Decode(&org); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.New()
	validation.Required("nombre", org.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.Org.Save(&org); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}
