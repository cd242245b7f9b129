package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/facturacion/internal/httpx"
	"github.com/diewo77/facturacion/internal/models"
	"github.com/diewo77/facturacion/internal/services"
	"github.com/diewo77/facturacion/internal/validation"
)

// InvoiceHandler exposes invoice CRUD, numbering, and confirmation. The
// caller decides when stock moves: Save never touches the ledger, Confirm
// debits one sale per line inside the same transaction.
type InvoiceHandler struct {
	Invoices   *services.InvoiceService
	Numbering  *services.NumberingService
	Projection *services.ProjectionService
}

func NewInvoiceHandler(inv *services.InvoiceService, num *services.NumberingService, proj *services.ProjectionService) *InvoiceHandler {
	return &InvoiceHandler{Invoices: inv, Numbering: num, Projection: proj}
}

type invoiceItemReq struct {
	ProductID   uint    `json:"producto_id"`
	Quantity    int     `json:"cantidad"`
	UnitPrice   float64 `json:"precio_unitario"`
	VATRate     float64 `json:"iva_aplicado"`
	DiscountPct float64 `json:"descuento"`
}

type invoiceReq struct {
	ID              uint             `json:"id"`
	Number          string           `json:"numero_factura"`
	Date            string           `json:"fecha_factura"`
	CustomerName    string           `json:"nombre_cliente"`
	CustomerTaxID   string           `json:"dni_nie_cliente"`
	CustomerAddress string           `json:"direccion_cliente"`
	CustomerEmail   string           `json:"email_cliente"`
	CustomerPhone   string           `json:"telefono_cliente"`
	PaymentMode     string           `json:"modo_pago"`
	Items           []invoiceItemReq `json:"items"`
}

func (r invoiceReq) validate() map[string]string {
	v := validation.New()
	validation.Required("numero_factura", r.Number, v)
	validation.Required("nombre_cliente", r.CustomerName, v)
	if len(r.Items) == 0 {
		v["items"] = "required"
	}
	for i, it := range r.Items {
		key := "items[" + strconv.Itoa(i) + "]"
		validation.RequiredID(key+".producto_id", it.ProductID, v)
		validation.AtLeastInt(key+".cantidad", it.Quantity, 1, v)
		validation.NonNegativeFloat(key+".precio_unitario", it.UnitPrice, v)
		validation.Percent(key+".iva_aplicado", it.VATRate, v)
		validation.Percent(key+".descuento", it.DiscountPct, v)
	}
	return v.OrNil()
}

func (r invoiceReq) toModel(w http.ResponseWriter) (*models.Invoice, bool) {
	date := time.Now()
	if r.Date != "" {
		parsed, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"fecha_factura": "expected_YYYY-MM-DD"})
			return nil, false
		}
		date = parsed
	}
	inv := &models.Invoice{
		ID:              r.ID,
		Number:          strings.TrimSpace(r.Number),
		Date:            date,
		CustomerName:    strings.TrimSpace(r.CustomerName),
		CustomerTaxID:   r.CustomerTaxID,
		CustomerAddress: r.CustomerAddress,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		PaymentMode:     r.PaymentMode,
	}
	for _, it := range r.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			VATRate:     it.VATRate,
			DiscountPct: it.DiscountPct,
		})
	}
	return inv, true
}

// List: GET /invoices – fully populated (two queries); ?summary=1 returns
// the cached header list.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("summary") == "1" {
		out, err := h.Projection.InvoiceSummaries()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
		return
	}
	out, err := h.Projection.ListInvoicesWithLines()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

// Save: POST /invoices – insert or replace-all update. No stock effects.
func (h *InvoiceHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.persist(w, r, false)
}

// Confirm: POST /invoices/confirm – save + one debit per line, atomically.
func (h *InvoiceHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.persist(w, r, true)
}

func (h *InvoiceHandler) persist(w http.ResponseWriter, r *http.Request, confirm bool) {
	var req invoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if problems := req.validate(); problems != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", problems)
		return
	}
	inv, ok := req.toModel(w)
	if !ok {
		return
	}
	var err error
	if confirm {
		err = h.Invoices.Confirm(inv)
	} else {
		err = h.Invoices.Save(inv)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, inv)
}

// Get: GET /invoices/get?id=1
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return
	}
	inv, err := h.Invoices.GetByID(uint(id))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: POST /invoices/delete
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"id": "required"})
		return
	}
	if err := h.Invoices.Delete(req.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": req.ID})
}

// NextNumber: GET /invoices/next-number – computed at the moment of
// issuance, never reserved.
func (h *InvoiceHandler) NextNumber(w http.ResponseWriter, r *http.Request) {
	n, err := h.Numbering.Next()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"numero_factura": n})
}
