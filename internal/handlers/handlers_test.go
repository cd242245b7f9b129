package handlers

import (
	"fmt"
	"testing"

	"github.com/diewo77/facturacion/internal/cache"
	"github.com/diewo77/facturacion/internal/models"
	"github.com/diewo77/facturacion/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	catalog    *services.CatalogService
	ledger     *services.StockLedger
	invoices   *services.InvoiceService
	numbering  *services.NumberingService
	projection *services.ProjectionService
}

func setupTestEnv(t *testing.T) *testEnv {
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
	c := cache.New()
	ledger := services.NewStockLedger(db, c)
	return &testEnv{
		db:         db,
		catalog:    services.NewCatalogService(db, c),
		ledger:     ledger,
		invoices:   services.NewInvoiceService(db, ledger, c),
		numbering:  services.NewNumberingService(db),
		projection: services.NewProjectionService(db, c),
	}
}

func (e *testEnv) seedProduct(t *testing.T, name, ref string, price float64) models.Product {
	t.Helper()
	p := models.Product{Name: name, Reference: ref, Price: price, RecommendedVAT: 21}
	if err := e.catalog.Create(&p); err != nil {
		t.Fatalf("seed product %s: %v", ref, err)
	}
	return p
}
