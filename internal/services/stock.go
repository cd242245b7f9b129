package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/facturacion/internal/cache"
	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/gorm"
)

// StockLedger is the only writer of stock quantities. Every mutation is an
// atomic read-modify-write paired with exactly one movement row. Debits
// clamp the quantity at zero but the movement keeps the requested delta,
// so the audit trail records what actually happened.
type StockLedger struct {
	db    *gorm.DB
	cache *cache.TTLCache
}

func NewStockLedger(db *gorm.DB, c *cache.TTLCache) *StockLedger {
	return &StockLedger{db: db, cache: c}
}

// LowStockRow is one product at or below the low-stock threshold.
type LowStockRow struct {
	ProductID uint   `gorm:"column:producto_id" json:"producto_id"`
	Quantity  int    `gorm:"column:cantidad_disponible" json:"cantidad"`
	Name      string `gorm:"column:nombre" json:"nombre"`
	Reference string `gorm:"column:referencia" json:"referencia"`
}

// StockAdjustment is one row of a bulk update: the quantity is the new
// absolute value for the product.
type StockAdjustment struct {
	ProductID uint `json:"producto_id"`
	Quantity  int  `json:"cantidad"`
}

// CurrentQuantity returns the available quantity, or 0 when no stock
// record exists. It never fails.
func (l *StockLedger) CurrentQuantity(productID uint) int {
	var rec models.StockRecord
	if err := l.db.First(&rec, "producto_id = ?", productID).Error; err != nil {
		return 0
	}
	return rec.Quantity
}

// Credit increases the available quantity by amount (> 0).
func (l *StockLedger) Credit(productID uint, amount int, kind, reason string) error {
	if err := validateMutation(amount, kind); err != nil {
		return err
	}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		rec, err := lockRecord(tx, productID)
		if err != nil {
			return err
		}
		return applyMutation(tx, rec, rec.Quantity+amount, amount, kind, reason)
	})
	if err != nil {
		return classifyLedgerErr(err, "crediting", productID)
	}
	l.invalidate()
	return nil
}

// Debit decreases the available quantity by amount (> 0), floored at zero.
// Over-debit never fails: the record goes to 0 and the movement logs the
// full requested -amount.
func (l *StockLedger) Debit(productID uint, amount int, kind, reason string) error {
	if err := validateMutation(amount, kind); err != nil {
		return err
	}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		return l.debitIn(tx, productID, amount, kind, reason)
	})
	if err != nil {
		return classifyLedgerErr(err, "debiting", productID)
	}
	l.invalidate()
	return nil
}

// debitIn runs the debit inside an existing transaction. InvoiceService
// uses it to confirm an invoice and its stock effects atomically.
func (l *StockLedger) debitIn(tx *gorm.DB, productID uint, amount int, kind, reason string) error {
	rec, err := lockRecord(tx, productID)
	if err != nil {
		return err
	}
	newQty := rec.Quantity - amount
	if newQty < 0 {
		newQty = 0
	}
	return applyMutation(tx, rec, newQty, -amount, kind, reason)
}

// BulkAdjust sets absolute quantities for several products in one
// transaction; on any failure the whole batch rolls back.
func (l *StockLedger) BulkAdjust(adjustments []StockAdjustment, reason string) error {
	if len(adjustments) == 0 {
		return nil
	}
	for _, a := range adjustments {
		if a.Quantity < 0 {
			return fmt.Errorf("%w: negative quantity for product %d", ErrValidation, a.ProductID)
		}
	}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		for _, a := range adjustments {
			rec, err := lockRecord(tx, a.ProductID)
			if err != nil {
				return err
			}
			delta := a.Quantity - rec.Quantity
			if delta == 0 {
				continue
			}
			kind := models.MovementAdjustPositive
			if delta < 0 {
				kind = models.MovementAdjustNegative
			}
			if err := applyMutation(tx, rec, a.Quantity, delta, kind, reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
		}
		return fmt.Errorf("%w: bulk stock update: %v", ErrTransactionAborted, err)
	}
	l.invalidate()
	return nil
}

// LowStock lists products at or below threshold, lowest quantity first,
// then by name.
func (l *StockLedger) LowStock(threshold int) ([]LowStockRow, error) {
	var rows []LowStockRow
	err := l.db.Table("stock s").
		Select("s.producto_id, s.cantidad_disponible, p.nombre, p.referencia").
		Joins("JOIN productos p ON s.producto_id = p.id").
		Where("s.cantidad_disponible <= ?", threshold).
		Order("s.cantidad_disponible ASC, p.nombre").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing low stock: %v", ErrStorage, err)
	}
	return rows, nil
}

// History returns the most recent movements for a product, newest first.
func (l *StockLedger) History(productID uint, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []models.StockMovement
	err := l.db.Where("producto_id = ?", productID).
		Order("fecha_movimiento DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("%w: loading movements for product %d: %v", ErrStorage, productID, err)
	}
	return out, nil
}

func validateMutation(amount int, kind string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !models.ValidMovementKind(kind) {
		return fmt.Errorf("%w: unknown movement kind %q", ErrValidation, kind)
	}
	return nil
}

func lockRecord(tx *gorm.DB, productID uint) (*models.StockRecord, error) {
	var rec models.StockRecord
	if err := tx.First(&rec, "producto_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil, err
	}
	return &rec, nil
}

// applyMutation updates the quantity and appends the paired movement row.
func applyMutation(tx *gorm.DB, rec *models.StockRecord, newQty, delta int, kind, reason string) error {
	res := tx.Model(&models.StockRecord{}).
		Where("producto_id = ?", rec.ProductID).
		Update("cantidad_disponible", newQty)
	if res.Error != nil {
		return res.Error
	}
	return tx.Create(&models.StockMovement{
		ProductID: rec.ProductID,
		Quantity:  delta,
		Kind:      kind,
		Reason:    reason,
	}).Error
}

func classifyLedgerErr(err error, op string, productID uint) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %s stock for product %d: %v", ErrStorage, op, productID, err)
}

func (l *StockLedger) invalidate() {
	if l.cache != nil {
		l.cache.Invalidate("stock")
		l.cache.Invalidate("low_stock")
		// product summaries embed stock counts
		l.cache.Invalidate("productos")
	}
}
