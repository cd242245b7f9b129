package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/facturacion/internal/httpx"
	"github.com/diewo77/facturacion/internal/services"
)

// writeServiceError maps service error kinds onto HTTP statuses with a
// stable machine-readable code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrDuplicateReference):
		httpx.JSONError(w, http.StatusConflict, "duplicate_reference", err.Error())
	case errors.Is(err, services.ErrDuplicateNumber):
		httpx.JSONError(w, http.StatusConflict, "duplicate_invoice_number", err.Error())
	case errors.Is(err, services.ErrValidation):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, services.ErrTransactionAborted):
		httpx.JSONError(w, http.StatusConflict, "transaction_aborted", err.Error())
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "storage_error", nil)
	}
}
