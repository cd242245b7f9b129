package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/facturacion/internal/models"
	"gorm.io/gorm"
)

// OrganizationService manages the single issuer record (row id 1) that
// document rendering reads alongside a populated invoice.
type OrganizationService struct {
	db *gorm.DB
}

func NewOrganizationService(db *gorm.DB) *OrganizationService {
	return &OrganizationService{db: db}
}

// Get returns the organization, or a zero-value record when none has been
// saved yet.
func (s *OrganizationService) Get() (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Organization{ID: 1, InitialNumber: 1}, nil
		}
		return nil, fmt.Errorf("%w: loading organization: %v", ErrStorage, err)
	}
	return &org, nil
}

// Save upserts the singleton row.
func (s *OrganizationService) Save(org *models.Organization) error {
	org.ID = 1
	if org.InitialNumber <= 0 {
		org.InitialNumber = 1
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Organization
		err := tx.First(&existing, 1).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(org).Error
		case err != nil:
			return err
		default:
			return tx.Model(&models.Organization{}).Where("id = 1").Updates(map[string]any{
				"nombre":                      org.Name,
				"direccion":                   org.Address,
				"telefono":                    org.Phone,
				"email":                       org.Email,
				"cif":                         org.TaxID,
				"logo_path":                   org.LogoPath,
				"directorio_imagenes_defecto": org.DefaultImageDir,
				"numero_factura_inicial":      org.InitialNumber,
				"directorio_descargas_pdf":    org.PDFDownloadDir,
				"visor_pdf_personalizado":     org.PDFViewer,
			}).Error
		}
	})
	if err != nil {
		return fmt.Errorf("%w: saving organization: %v", ErrStorage, err)
	}
	return nil
}
