package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/diewo77/facturacion/internal/httpx"
	"github.com/diewo77/facturacion/internal/models"
	"github.com/diewo77/facturacion/internal/services"
	"github.com/diewo77/facturacion/internal/validation"
)

// ProductHandler exposes catalog CRUD. Field-level validation lives here,
// not in the services (empty name, negative price, out-of-range VAT).
type ProductHandler struct {
	Catalog    *services.CatalogService
	Projection *services.ProjectionService
}

func NewProductHandler(catalog *services.CatalogService, projection *services.ProjectionService) *ProductHandler {
	return &ProductHandler{Catalog: catalog, Projection: projection}
}

type productReq struct {
	ID             uint    `json:"id"`
	Name           string  `json:"nombre"`
	Reference      string  `json:"referencia"`
	Price          float64 `json:"precio"`
	Category       string  `json:"categoria"`
	Description    string  `json:"descripcion"`
	ImagePath      string  `json:"imagen_path"`
	RecommendedVAT float64 `json:"iva_recomendado"`
}

func (r productReq) validate() map[string]string {
	v := validation.New()
	validation.Required("nombre", r.Name, v)
	validation.Required("referencia", r.Reference, v)
	validation.NonNegativeFloat("precio", r.Price, v)
	validation.Percent("iva_recomendado", r.RecommendedVAT, v)
	return v.OrNil()
}

func (r productReq) toModel() models.Product {
	return models.Product{
		ID:             r.ID,
		Name:           strings.TrimSpace(r.Name),
		Reference:      strings.TrimSpace(r.Reference),
		Price:          r.Price,
		Category:       r.Category,
		Description:    r.Description,
		ImagePath:      r.ImagePath,
		RecommendedVAT: r.RecommendedVAT,
	}
}

// List: GET /products – full catalog; /products?summary=1 returns the
// cached summary view with stock counts.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("summary") == "1" {
		out, err := h.Projection.ProductSummaries()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
		return
	}
	out, err := h.Catalog.List()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

// Create: POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if problems := req.validate(); problems != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", problems)
		return
	}
	if req.RecommendedVAT == 0 {
		req.RecommendedVAT = 21
	}
	p := req.toModel()
	if err := h.Catalog.Create(&p); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Update: POST /products/update
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return
	}
	if problems := req.validate(); problems != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", problems)
		return
	}
	p := req.toModel()
	if err := h.Catalog.Update(&p); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Delete: POST /products/delete
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return
	}
	if err := h.Catalog.Delete(req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": req.ID})
}
