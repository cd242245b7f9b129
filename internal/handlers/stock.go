package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diewo77/facturacion/internal/httpx"
	"github.com/diewo77/facturacion/internal/models"
	"github.com/diewo77/facturacion/internal/services"
	"github.com/diewo77/facturacion/internal/validation"
)

// StockHandler exposes the ledger: joined list, low-stock view, credit and
// debit mutations, bulk recount, and the movement history.
type StockHandler struct {
	Ledger     *services.StockLedger
	Projection *services.ProjectionService
}

func NewStockHandler(ledger *services.StockLedger, projection *services.ProjectionService) *StockHandler {
	return &StockHandler{Ledger: ledger, Projection: projection}
}

type mutationReq struct {
	ProductID uint   `json:"producto_id"`
	Amount    int    `json:"cantidad"`
	Kind      string `json:"tipo"`
	Reason    string `json:"descripcion"`
}

func decodeMutation(w http.ResponseWriter, r *http.Request) (mutationReq, bool) {
	var req mutationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return req, false
	}
	v := validation.New()
	validation.RequiredID("producto_id", req.ProductID, v)
	validation.PositiveInt("cantidad", req.Amount, v)
	if !models.ValidMovementKind(req.Kind) {
		v["tipo"] = "unknown_kind"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return req, false
	}
	return req, true
}

// List: GET /stock – single-join stock view.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Projection.ListStockJoined()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows})
}

// Low: GET /stock/low?threshold=5
func (h *StockHandler) Low(w http.ResponseWriter, r *http.Request) {
	threshold := 5
	if v := r.URL.Query().Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"threshold": "must_be_non_negative_integer"})
			return
		}
		threshold = n
	}
	rows, err := h.Projection.LowStockCached(h.Ledger, threshold)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": rows, "threshold": threshold})
}

// Credit: POST /stock/credit
func (h *StockHandler) Credit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	if err := h.Ledger.Credit(req.ProductID, req.Amount, req.Kind, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"producto_id": req.ProductID,
		"cantidad":    h.Ledger.CurrentQuantity(req.ProductID),
	})
}

// Debit: POST /stock/debit – floors at zero, never fails on over-debit.
func (h *StockHandler) Debit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMutation(w, r)
	if !ok {
		return
	}
	if err := h.Ledger.Debit(req.ProductID, req.Amount, req.Kind, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"producto_id": req.ProductID,
		"cantidad":    h.Ledger.CurrentQuantity(req.ProductID),
	})
}

// Bulk: POST /stock/bulk – all-or-nothing recount.
func (h *StockHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Adjustments []services.StockAdjustment `json:"items"`
		Reason      string                     `json:"descripcion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if len(req.Adjustments) == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"items": "required"})
		return
	}
	if err := h.Ledger.BulkAdjust(req.Adjustments, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": len(req.Adjustments)})
}

// History: GET /stock/history?product_id=1&limit=10 – newest first.
func (h *StockHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"product_id": "required"})
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, aerr := strconv.Atoi(v); aerr == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	movs, err := h.Ledger.History(uint(id), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": movs})
}
