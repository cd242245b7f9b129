package models

import "time"

// Invoice header plus its ordered line items. The three monetary roll-ups
// are derived from the items and recomputed before every save.
type Invoice struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Number          string        `gorm:"column:numero_factura;uniqueIndex;not null" json:"numero_factura"`
	Date            time.Time     `gorm:"column:fecha_factura;not null" json:"fecha_factura"`
	CustomerName    string        `gorm:"column:nombre_cliente;not null" json:"nombre_cliente"`
	CustomerTaxID   string        `gorm:"column:dni_nie_cliente" json:"dni_nie_cliente"`
	CustomerAddress string        `gorm:"column:direccion_cliente" json:"direccion_cliente"`
	CustomerEmail   string        `gorm:"column:email_cliente" json:"email_cliente"`
	CustomerPhone   string        `gorm:"column:telefono_cliente" json:"telefono_cliente"`
	Subtotal        float64       `gorm:"column:subtotal;not null" json:"subtotal"`
	TotalVAT        float64       `gorm:"column:total_iva;not null" json:"total_iva"`
	Total           float64       `gorm:"column:total_factura;not null" json:"total_factura"`
	PaymentMode     string        `gorm:"column:modo_pago" json:"modo_pago"`
	CreatedAt       time.Time     `gorm:"column:fecha_creacion" json:"fecha_creacion"`
	Items           []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

func (Invoice) TableName() string { return "facturas" }

// InvoiceItem is one product line within an invoice. UnitPrice and VATRate
// are snapshots taken at time of sale, not live references to the catalog.
// The four derived amounts come from billing.ComputeLine.
type InvoiceItem struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	InvoiceID      uint    `gorm:"column:factura_id;index;not null" json:"factura_id"`
	ProductID      uint    `gorm:"column:producto_id;not null" json:"producto_id"`
	Quantity       int     `gorm:"column:cantidad;not null" json:"cantidad"`
	UnitPrice      float64 `gorm:"column:precio_unitario;not null" json:"precio_unitario"`
	VATRate        float64 `gorm:"column:iva_aplicado;not null" json:"iva_aplicado"`
	DiscountPct    float64 `gorm:"column:descuento;default:0" json:"descuento"`
	Subtotal       float64 `gorm:"column:subtotal;not null" json:"subtotal"`
	DiscountAmount float64 `gorm:"column:descuento_amount;default:0" json:"descuento_amount"`
	VATAmount      float64 `gorm:"column:iva_amount;not null" json:"iva_amount"`
	Total          float64 `gorm:"column:total;not null" json:"total"`

	// Display fields resolved by the projection layer, never persisted.
	ProductName      string `gorm:"-" json:"producto_nombre,omitempty"`
	ProductReference string `gorm:"-" json:"producto_referencia,omitempty"`
}

func (InvoiceItem) TableName() string { return "factura_items" }
