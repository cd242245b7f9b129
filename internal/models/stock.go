package models

import "time"

// StockRecord holds the current available quantity for one product.
// Mutated only through the stock ledger so every change leaves a movement.
type StockRecord struct {
	ProductID uint      `gorm:"column:producto_id;primaryKey" json:"producto_id"`
	Quantity  int       `gorm:"column:cantidad_disponible;not null;default:0" json:"cantidad_disponible"`
	UpdatedAt time.Time `gorm:"column:fecha_actualizacion" json:"fecha_actualizacion"`
}

func (StockRecord) TableName() string { return "stock" }

// Movement kinds. Closed set; anything else is rejected by the ledger.
const (
	MovementManual         = "MANUAL"
	MovementSale           = "VENTA"
	MovementInitial        = "INICIAL"
	MovementAdjustPositive = "AJUSTE_POSITIVO"
	MovementAdjustNegative = "AJUSTE_NEGATIVO"
)

// ValidMovementKind reports whether kind belongs to the closed set.
func ValidMovementKind(kind string) bool {
	switch kind {
	case MovementManual, MovementSale, MovementInitial, MovementAdjustPositive, MovementAdjustNegative:
		return true
	}
	return false
}

// StockMovement is one append-only audit row. The quantity is the signed
// delta as requested by the caller, even when the stock record was clamped.
type StockMovement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"column:producto_id;index;not null" json:"producto_id"`
	Quantity  int       `gorm:"column:cantidad;not null" json:"cantidad"`
	Kind      string    `gorm:"column:tipo;not null" json:"tipo"`
	Reason    string    `gorm:"column:descripcion" json:"descripcion"`
	CreatedAt time.Time `gorm:"column:fecha_movimiento" json:"fecha_movimiento"`
}

func (StockMovement) TableName() string { return "stock_movements" }
