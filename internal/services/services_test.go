package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/facturacion/internal/cache"
	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, ref string, price float64) models.Product {
	t.Helper()
	p := models.Product{Name: name, Reference: ref, Price: price, RecommendedVAT: 21}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product %s: %v", ref, err)
	}
	if err := db.Create(&models.StockRecord{ProductID: p.ID}).Error; err != nil {
		t.Fatalf("seed stock %s: %v", ref, err)
	}
	return p
}

func newLedger(t *testing.T, db *gorm.DB) *StockLedger {
	t.Helper()
	return NewStockLedger(db, cache.New())
}

func testInvoice(number string, items ...models.InvoiceItem) *models.Invoice {
	return &models.Invoice{
		Number:       number,
		Date:         time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		CustomerName: "Cliente Prueba",
		PaymentMode:  "efectivo",
		Items:        items,
	}
}
