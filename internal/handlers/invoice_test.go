package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/facturacion/internal/models"
)

func TestInvoiceSaveAndGet(t *testing.T) {
	env := setupTestEnv(t)
	p := env.seedProduct(t, "Silla", "SIL-1", 20)
	h := NewInvoiceHandler(env.invoices, env.numbering, env.projection)

	body := fmt.Sprintf(`{
		"numero_factura":"1-2025",
		"fecha_factura":"2025-03-15",
		"nombre_cliente":"Cliente",
		"modo_pago":"efectivo",
		"items":[{"producto_id":%d,"cantidad":1,"precio_unitario":20,"iva_aplicado":21,"descuento":10}]
	}`, p.ID)
	w := httptest.NewRecorder()
	h.Save(w, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Subtotal != 18.00 || created.TotalVAT != 3.78 || created.Total != 21.78 {
		t.Fatalf("totals not derived on save: %+v", created)
	}

	w = httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/invoices/get?id=%d", created.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200 got %d", w.Code)
	}
	var got models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ProductName != "Silla" {
		t.Fatalf("expected resolved product name: %+v", got.Items)
	}
}

func TestInvoiceValidation(t *testing.T) {
	env := setupTestEnv(t)
	h := NewInvoiceHandler(env.invoices, env.numbering, env.projection)

	cases := []string{
		`{"numero_factura":"","nombre_cliente":"C","items":[{"producto_id":1,"cantidad":1}]}`,
		`{"numero_factura":"1-2025","nombre_cliente":"","items":[{"producto_id":1,"cantidad":1}]}`,
		`{"numero_factura":"1-2025","nombre_cliente":"C","items":[]}`,
		`{"numero_factura":"1-2025","nombre_cliente":"C","items":[{"producto_id":1,"cantidad":0}]}`,
		`{"numero_factura":"1-2025","nombre_cliente":"C","items":[{"producto_id":1,"cantidad":1,"descuento":120}]}`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		h.Save(w, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, w.Code)
		}
	}
}

func TestInvoiceConfirmDebitsStock(t *testing.T) {
	env := setupTestEnv(t)
	p := env.seedProduct(t, "Silla", "SIL-1", 20)
	_ = env.ledger.Credit(p.ID, 10, models.MovementInitial, "alta")
	h := NewInvoiceHandler(env.invoices, env.numbering, env.projection)

	body := fmt.Sprintf(`{
		"numero_factura":"1-2025",
		"nombre_cliente":"Cliente",
		"items":[{"producto_id":%d,"cantidad":4,"precio_unitario":20,"iva_aplicado":21}]
	}`, p.ID)
	w := httptest.NewRecorder()
	h.Confirm(w, httptest.NewRequest(http.MethodPost, "/invoices/confirm", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if got := env.ledger.CurrentQuantity(p.ID); got != 6 {
		t.Fatalf("stock not debited on confirm: got %d want 6", got)
	}
}

func TestInvoiceNextNumberEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	p := env.seedProduct(t, "Silla", "SIL-1", 20)
	h := NewInvoiceHandler(env.invoices, env.numbering, env.projection)

	w := httptest.NewRecorder()
	h.NextNumber(w, httptest.NewRequest(http.MethodGet, "/invoices/next-number", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var first struct {
		Number string `json:"numero_factura"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(first.Number, "1-") {
		t.Fatalf("expected first number of year, got %q", first.Number)
	}

	// Issue it, then the suggestion moves on.
	body := fmt.Sprintf(`{"numero_factura":%q,"nombre_cliente":"C","items":[{"producto_id":%d,"cantidad":1,"precio_unitario":20,"iva_aplicado":21}]}`, first.Number, p.ID)
	w = httptest.NewRecorder()
	h.Save(w, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("save: expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.NextNumber(w, httptest.NewRequest(http.MethodGet, "/invoices/next-number", nil))
	var second struct {
		Number string `json:"numero_factura"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(second.Number, "2-") {
		t.Fatalf("expected sequence to advance, got %q", second.Number)
	}
}

func TestInvoiceDuplicateNumberConflict(t *testing.T) {
	env := setupTestEnv(t)
	p := env.seedProduct(t, "Silla", "SIL-1", 20)
	h := NewInvoiceHandler(env.invoices, env.numbering, env.projection)

	body := fmt.Sprintf(`{"numero_factura":"7-2025","nombre_cliente":"C","items":[{"producto_id":%d,"cantidad":1,"precio_unitario":20,"iva_aplicado":21}]}`, p.ID)
	w := httptest.NewRecorder()
	h.Save(w, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("first save: %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.Save(w, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body)))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestInvoiceDeleteEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	p := env.seedProduct(t, "Silla", "SIL-1", 20)
	h := NewInvoiceHandler(env.invoices, env.numbering, env.projection)

	body := fmt.Sprintf(`{"numero_factura":"1-2025","nombre_cliente":"C","items":[{"producto_id":%d,"cantidad":1,"precio_unitario":20,"iva_aplicado":21}]}`, p.ID)
	w := httptest.NewRecorder()
	h.Save(w, httptest.NewRequest(http.MethodPost, "/invoices", strings.NewReader(body)))
	var created models.Invoice
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = httptest.NewRecorder()
	h.Delete(w, httptest.NewRequest(http.MethodPost, "/invoices/delete", strings.NewReader(fmt.Sprintf(`{"id":%d}`, created.ID))))
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200 got %d", w.Code)
	}
	var count int64
	if err := env.db.Model(&models.InvoiceItem{}).Where("factura_id = ?", created.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("line items survived invoice delete: %d", count)
	}
}
