package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.StockRecord{}, &models.StockMovement{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.Organization{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	h := setupRouter(t)
	if w := doJSON(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("/health: %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("/healthz: %d", w.Code)
	}
}

func TestMethodDispatch(t *testing.T) {
	h := setupRouter(t)
	w := doJSON(t, h, http.MethodDelete, "/products", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != "GET,POST" {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}

func TestEndToEndInvoiceFlow(t *testing.T) {
	h := setupRouter(t)

	// Create a product; its stock record starts at 0.
	w := doJSON(t, h, http.MethodPost, "/products", `{"nombre":"Silla","referencia":"SIL-1","precio":20,"iva_recomendado":21}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create product: %d body=%s", w.Code, w.Body.String())
	}
	var product models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &product); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	// Stock intake.
	w = doJSON(t, h, http.MethodPost, "/stock/credit", fmt.Sprintf(`{"producto_id":%d,"cantidad":10,"tipo":"INICIAL","descripcion":"alta"}`, product.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("credit: %d body=%s", w.Code, w.Body.String())
	}

	// Ask for the next number, then confirm an invoice with it.
	w = doJSON(t, h, http.MethodGet, "/invoices/next-number", "")
	var next struct {
		Number string `json:"numero_factura"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode number: %v", err)
	}

	invoiceBody := fmt.Sprintf(`{
		"numero_factura":%q,
		"fecha_factura":"2025-03-15",
		"nombre_cliente":"Cliente",
		"modo_pago":"tarjeta",
		"items":[{"producto_id":%d,"cantidad":4,"precio_unitario":20,"iva_aplicado":21,"descuento":10}]
	}`, next.Number, product.ID)
	w = doJSON(t, h, http.MethodPost, "/invoices/confirm", invoiceBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("confirm: %d body=%s", w.Code, w.Body.String())
	}

	// Stock moved, joined view reflects it.
	w = doJSON(t, h, http.MethodGet, "/stock", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stock list: %d", w.Code)
	}
	var stock struct {
		Items []struct {
			Quantity int `json:"cantidad"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stock); err != nil {
		t.Fatalf("decode stock: %v", err)
	}
	if len(stock.Items) != 1 || stock.Items[0].Quantity != 6 {
		t.Fatalf("unexpected stock view: %s", w.Body.String())
	}

	// Invoice list view is fully populated.
	w = doJSON(t, h, http.MethodGet, "/invoices", "")
	var invoices struct {
		Items []models.Invoice `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &invoices); err != nil {
		t.Fatalf("decode invoices: %v", err)
	}
	if len(invoices.Items) != 1 || len(invoices.Items[0].Items) != 1 {
		t.Fatalf("expected 1 populated invoice: %s", w.Body.String())
	}
	if invoices.Items[0].Items[0].ProductName != "Silla" {
		t.Fatalf("product name not resolved in list: %s", w.Body.String())
	}
}

func TestOrganizationRoundTrip(t *testing.T) {
	h := setupRouter(t)

	w := doJSON(t, h, http.MethodPut, "/organization", `{"nombre":"Mi Empresa","cif":"B12345678","numero_factura_inicial":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("put organization: %d body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodGet, "/organization", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get organization: %d", w.Code)
	}
	var org models.Organization
	if err := json.Unmarshal(w.Body.Bytes(), &org); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if org.Name != "Mi Empresa" || org.InitialNumber != 10 {
		t.Fatalf("unexpected organization: %+v", org)
	}

	// The configured initial number drives the first invoice of the year.
	w = doJSON(t, h, http.MethodGet, "/invoices/next-number", "")
	var next struct {
		Number string `json:"numero_factura"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode number: %v", err)
	}
	if !strings.HasPrefix(next.Number, "10-") {
		t.Fatalf("expected configured initial number, got %q", next.Number)
	}
}
