package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/facturacion/internal/billing"
	"github.com/diewo77/facturacion/internal/cache"
	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/gorm"
)

// InvoiceService owns the invoice aggregate: header plus ordered line
// items. Saving always replaces the full line set (delete + reinsert), the
// behavior the rest of the system was built around.
type InvoiceService struct {
	db     *gorm.DB
	ledger *StockLedger
	cache  *cache.TTLCache
}

func NewInvoiceService(db *gorm.DB, ledger *StockLedger, c *cache.TTLCache) *InvoiceService {
	return &InvoiceService{db: db, ledger: ledger, cache: c}
}

// RecalculateTotals recomputes every line's derived amounts and rolls them
// up into the header. Idempotent for an unchanged line set.
func (s *InvoiceService) RecalculateTotals(inv *models.Invoice) {
	lines := make([]billing.LineTotals, len(inv.Items))
	for i := range inv.Items {
		it := &inv.Items[i]
		lt := billing.ComputeLine(it.UnitPrice, it.Quantity, it.VATRate, it.DiscountPct)
		it.Subtotal = lt.Subtotal
		it.DiscountAmount = lt.DiscountAmount
		it.VATAmount = lt.VATAmount
		it.Total = lt.Total
		lines[i] = lt
	}
	inv.Subtotal, inv.TotalVAT, inv.Total = billing.SumLines(lines)
}

// Save persists the invoice. New invoices insert header then lines;
// existing ones update the header, delete all prior lines and reinsert the
// in-memory set. Totals are recomputed first so header and lines can never
// be persisted inconsistently.
func (s *InvoiceService) Save(inv *models.Invoice) error {
	s.RecalculateTotals(inv)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.saveIn(tx, inv)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateNumber, inv.Number)
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: saving invoice %q: %v", ErrStorage, inv.Number, err)
	}
	s.invalidate()
	return nil
}

func (s *InvoiceService) saveIn(tx *gorm.DB, inv *models.Invoice) error {
	items := inv.Items
	inv.Items = nil
	defer func() { inv.Items = items }()

	if inv.ID == 0 {
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
	} else {
		res := tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).Updates(map[string]any{
			"numero_factura":    inv.Number,
			"fecha_factura":     inv.Date,
			"nombre_cliente":    inv.CustomerName,
			"dni_nie_cliente":   inv.CustomerTaxID,
			"direccion_cliente": inv.CustomerAddress,
			"email_cliente":     inv.CustomerEmail,
			"telefono_cliente":  inv.CustomerPhone,
			"subtotal":          inv.Subtotal,
			"total_iva":         inv.TotalVAT,
			"total_factura":     inv.Total,
			"modo_pago":         inv.PaymentMode,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: invoice %d", ErrNotFound, inv.ID)
		}
		if err := tx.Delete(&models.InvoiceItem{}, "factura_id = ?", inv.ID).Error; err != nil {
			return err
		}
	}
	for i := range items {
		items[i].ID = 0
		items[i].InvoiceID = inv.ID
		if err := tx.Create(&items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Confirm persists the invoice and debits stock once per line, all inside
// one transaction: either the invoice and its stock effects land together
// or neither does.
func (s *InvoiceService) Confirm(inv *models.Invoice) error {
	s.RecalculateTotals(inv)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.saveIn(tx, inv); err != nil {
			return err
		}
		for _, it := range inv.Items {
			reason := fmt.Sprintf("Venta de %d unidades (factura %s)", it.Quantity, inv.Number)
			if err := s.ledger.debitIn(tx, it.ProductID, it.Quantity, models.MovementSale, reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateNumber, inv.Number)
		}
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
		}
		return fmt.Errorf("%w: confirming invoice %q: %v", ErrTransactionAborted, inv.Number, err)
	}
	s.invalidate()
	s.ledger.invalidate()
	return nil
}

// GetByID loads the header and its lines in insertion order, with product
// display fields resolved.
func (s *InvoiceService) GetByID(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.First(&inv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: loading invoice %d: %v", ErrStorage, id, err)
	}
	items, err := s.loadItems(id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (s *InvoiceService) loadItems(invoiceID uint) ([]models.InvoiceItem, error) {
	type itemRow struct {
		models.InvoiceItem
		Nombre     string
		Referencia string
	}
	var rows []itemRow
	err := s.db.Table("factura_items fi").
		Select("fi.*, p.nombre, p.referencia").
		Joins("LEFT JOIN productos p ON fi.producto_id = p.id").
		Where("fi.factura_id = ?", invoiceID).
		Order("fi.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading items for invoice %d: %v", ErrStorage, invoiceID, err)
	}
	items := make([]models.InvoiceItem, len(rows))
	for i, r := range rows {
		items[i] = r.InvoiceItem
		items[i].ProductName = r.Nombre
		items[i].ProductReference = r.Referencia
	}
	return items, nil
}

// Delete removes the invoice and all its line items.
func (s *InvoiceService) Delete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.InvoiceItem{}, "factura_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Invoice{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: invoice %d", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: deleting invoice %d: %v", ErrStorage, id, err)
	}
	s.invalidate()
	return nil
}

func (s *InvoiceService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate("facturas")
	}
}
