package services

import (
	"fmt"
	"time"

	"github.com/diewo77/facturacion/internal/cache"
	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/gorm"
)

// Cache windows for the summary views. Stock views are invalidated
// eagerly on every ledger write, so the TTL is only a backstop.
const (
	invoiceSummaryTTL = 60 * time.Second
	productSummaryTTL = 300 * time.Second
	lowStockTTL       = 300 * time.Second
)

// ProjectionService serves list views without the one-query-per-row
// pattern: batched joins for full hydration, a short-TTL cache for
// summaries. It never owns writes.
type ProjectionService struct {
	db    *gorm.DB
	cache *cache.TTLCache
}

func NewProjectionService(db *gorm.DB, c *cache.TTLCache) *ProjectionService {
	return &ProjectionService{db: db, cache: c}
}

// StockRow is one line of the joined stock view.
type StockRow struct {
	ProductID uint      `gorm:"column:producto_id" json:"producto_id"`
	Quantity  int       `gorm:"column:cantidad_disponible" json:"cantidad"`
	Name      string    `gorm:"column:nombre" json:"nombre"`
	Reference string    `gorm:"column:referencia" json:"referencia"`
	Price     float64   `gorm:"column:precio" json:"precio"`
	Category  string    `gorm:"column:categoria" json:"categoria"`
	UpdatedAt time.Time `gorm:"column:fecha_actualizacion" json:"fecha_actualizacion"`
}

// InvoiceSummary is the light header row for list displays.
type InvoiceSummary struct {
	ID           uint      `gorm:"column:id" json:"id"`
	Number       string    `gorm:"column:numero_factura" json:"numero_factura"`
	Date         time.Time `gorm:"column:fecha_factura" json:"fecha_factura"`
	CustomerName string    `gorm:"column:nombre_cliente" json:"nombre_cliente"`
	Total        float64   `gorm:"column:total_factura" json:"total_factura"`
}

// ProductSummary is the light catalog row with current stock attached.
type ProductSummary struct {
	ID        uint    `gorm:"column:id" json:"id"`
	Name      string  `gorm:"column:nombre" json:"nombre"`
	Reference string  `gorm:"column:referencia" json:"referencia"`
	Price     float64 `gorm:"column:precio" json:"precio"`
	Stock     int     `gorm:"column:stock" json:"stock"`
}

// ListInvoicesWithLines returns every invoice fully populated from exactly
// two queries: one for headers, one for all line items joined to product
// display fields, grouped in memory by invoice id.
func (p *ProjectionService) ListInvoicesWithLines() ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := p.db.Order("fecha_factura DESC, numero_factura DESC").Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing invoices: %v", ErrStorage, err)
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	type itemRow struct {
		models.InvoiceItem
		Nombre     string
		Referencia string
	}
	var rows []itemRow
	err = p.db.Table("factura_items fi").
		Select("fi.*, p.nombre, p.referencia").
		Joins("LEFT JOIN productos p ON fi.producto_id = p.id").
		Order("fi.factura_id, fi.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing invoice items: %v", ErrStorage, err)
	}

	byInvoice := make(map[uint][]models.InvoiceItem, len(invoices))
	for _, r := range rows {
		it := r.InvoiceItem
		it.ProductName = r.Nombre
		it.ProductReference = r.Referencia
		byInvoice[it.InvoiceID] = append(byInvoice[it.InvoiceID], it)
	}
	for i := range invoices {
		invoices[i].Items = byInvoice[invoices[i].ID]
	}
	return invoices, nil
}

// ListStockJoined returns the full stock view in a single join query.
func (p *ProjectionService) ListStockJoined() ([]StockRow, error) {
	var rows []StockRow
	err := p.db.Table("stock s").
		Select("s.producto_id, s.cantidad_disponible, s.fecha_actualizacion, p.nombre, p.referencia, p.precio, p.categoria").
		Joins("JOIN productos p ON s.producto_id = p.id").
		Order("p.nombre").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing stock: %v", ErrStorage, err)
	}
	return rows, nil
}

// InvoiceSummaries returns the cached header list, newest first.
func (p *ProjectionService) InvoiceSummaries() ([]InvoiceSummary, error) {
	v, err := p.cache.GetOrCompute("facturas_summary", invoiceSummaryTTL, func() (any, error) {
		var out []InvoiceSummary
		err := p.db.Model(&models.Invoice{}).
			Select("id, numero_factura, fecha_factura, nombre_cliente, total_factura").
			Order("fecha_factura DESC, numero_factura DESC").
			Scan(&out).Error
		if err != nil {
			return nil, fmt.Errorf("%w: invoice summaries: %v", ErrStorage, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]InvoiceSummary), nil
}

// ProductSummaries returns the cached catalog list with stock counts
// (LEFT JOIN, missing stock rows read as 0).
func (p *ProjectionService) ProductSummaries() ([]ProductSummary, error) {
	v, err := p.cache.GetOrCompute("productos_summary", productSummaryTTL, func() (any, error) {
		var out []ProductSummary
		err := p.db.Table("productos p").
			Select("p.id, p.nombre, p.referencia, p.precio, COALESCE(s.cantidad_disponible, 0) AS stock").
			Joins("LEFT JOIN stock s ON p.id = s.producto_id").
			Order("p.nombre").
			Scan(&out).Error
		if err != nil {
			return nil, fmt.Errorf("%w: product summaries: %v", ErrStorage, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ProductSummary), nil
}

// LowStockCached is the cached variant of the ledger's low-stock view,
// keyed per threshold.
func (p *ProjectionService) LowStockCached(ledger *StockLedger, threshold int) ([]LowStockRow, error) {
	key := fmt.Sprintf("low_stock:%d", threshold)
	v, err := p.cache.GetOrCompute(key, lowStockTTL, func() (any, error) {
		return ledger.LowStock(threshold)
	})
	if err != nil {
		return nil, err
	}
	return v.([]LowStockRow), nil
}
