package server

import (
	"net/http"
	"time"

	"github.com/diewo77/facturacion/internal/cache"
	"github.com/diewo77/facturacion/internal/handlers"
	"github.com/diewo77/facturacion/internal/httpx"
	"github.com/diewo77/facturacion/internal/services"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. All services share one TTL cache so write paths can invalidate
// the read views.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	c := cache.New()
	catalog := services.NewCatalogService(db, c)
	ledger := services.NewStockLedger(db, c)
	invoices := services.NewInvoiceService(db, ledger, c)
	numbering := services.NewNumberingService(db)
	projection := services.NewProjectionService(db, c)
	organization := services.NewOrganizationService(db)

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Product endpoints. List/Create via /products; update/delete via
	// dedicated POST routes for simplicity.
	ph := handlers.NewProductHandler(catalog, projection)
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ph.List(w, r)
		case http.MethodPost:
			ph.Create(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})
	mux.HandleFunc("/products/update", post(ph.Update))
	mux.HandleFunc("/products/delete", post(ph.Delete))

	// Stock ledger endpoints
	sh := handlers.NewStockHandler(ledger, projection)
	mux.HandleFunc("/stock", get(sh.List))
	mux.HandleFunc("/stock/low", get(sh.Low))
	mux.HandleFunc("/stock/credit", post(sh.Credit))
	mux.HandleFunc("/stock/debit", post(sh.Debit))
	mux.HandleFunc("/stock/bulk", post(sh.Bulk))
	mux.HandleFunc("/stock/history", get(sh.History))

	// Invoice endpoints
	ih := handlers.NewInvoiceHandler(invoices, numbering, projection)
	mux.HandleFunc("/invoices", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			ih.List(w, r)
		case http.MethodPost:
			ih.Save(w, r)
		default:
			methodNotAllowed(w, "GET,POST")
		}
	})
	mux.HandleFunc("/invoices/get", get(ih.Get))
	mux.HandleFunc("/invoices/delete", post(ih.Delete))
	mux.HandleFunc("/invoices/confirm", post(ih.Confirm))
	mux.HandleFunc("/invoices/next-number", get(ih.NextNumber))

	// Organization record
	oh := handlers.NewOrganizationHandler(organization)
	mux.HandleFunc("/organization", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			oh.Get(w, r)
		case http.MethodPut:
			oh.Save(w, r)
		default:
			methodNotAllowed(w, "GET,PUT")
		}
	})

	return withRecover(withLogging(mux))
}

func get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		h(w, r)
	}
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		h(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Any("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
