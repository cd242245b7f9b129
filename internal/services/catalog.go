package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/facturacion/internal/cache"
	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/gorm"
)

// CatalogService owns product identity and descriptive attributes.
// Creating a product also creates its stock record (quantity 0); deleting
// a product removes the stock record. Movements are never deleted.
type CatalogService struct {
	db    *gorm.DB
	cache *cache.TTLCache
}

func NewCatalogService(db *gorm.DB, c *cache.TTLCache) *CatalogService {
	return &CatalogService{db: db, cache: c}
}

// Create inserts the product and its zero-quantity stock record in one
// transaction.
func (s *CatalogService) Create(p *models.Product) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return tx.Create(&models.StockRecord{ProductID: p.ID, Quantity: 0}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: referencia %q", ErrDuplicateReference, p.Reference)
		}
		return fmt.Errorf("%w: creating product: %v", ErrStorage, err)
	}
	s.invalidate()
	return nil
}

// Update saves mutable attributes; identity is immutable.
func (s *CatalogService) Update(p *models.Product) error {
	if p.ID == 0 {
		return fmt.Errorf("%w: product id required", ErrValidation)
	}
	res := s.db.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"nombre":          p.Name,
		"referencia":      p.Reference,
		"precio":          p.Price,
		"categoria":       p.Category,
		"descripcion":     p.Description,
		"imagen_path":     p.ImagePath,
		"iva_recomendado": p.RecommendedVAT,
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("%w: referencia %q", ErrDuplicateReference, p.Reference)
		}
		return fmt.Errorf("%w: updating product %d: %v", ErrStorage, p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, p.ID)
	}
	s.invalidate()
	return nil
}

// Delete removes the product and its stock record. The movement history is
// kept for reconciliation.
func (s *CatalogService) Delete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.StockRecord{}, "producto_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: deleting product %d: %v", ErrStorage, id, err)
	}
	s.invalidate()
	return nil
}

func (s *CatalogService) Get(id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: loading product %d: %v", ErrStorage, id, err)
	}
	return &p, nil
}

// List returns the whole catalog ordered by name.
func (s *CatalogService) List() ([]models.Product, error) {
	var out []models.Product
	if err := s.db.Order("nombre").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("%w: listing products: %v", ErrStorage, err)
	}
	return out, nil
}

func (s *CatalogService) invalidate() {
	if s.cache != nil {
		s.cache.Invalidate("productos")
		s.cache.Invalidate("stock")
		s.cache.Invalidate("low_stock")
	}
}
