package models

import "time"

// Organization is the single issuer record (row id 1). Document rendering
// reads it together with a populated invoice; it never mutates anything.
type Organization struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"column:nombre;not null" json:"nombre"`
	Address         string    `gorm:"column:direccion" json:"direccion"`
	Phone           string    `gorm:"column:telefono" json:"telefono"`
	Email           string    `gorm:"column:email" json:"email"`
	TaxID           string    `gorm:"column:cif" json:"cif"`
	LogoPath        string    `gorm:"column:logo_path" json:"logo_path"`
	DefaultImageDir string    `gorm:"column:directorio_imagenes_defecto" json:"directorio_imagenes_defecto"`
	InitialNumber   int       `gorm:"column:numero_factura_inicial;default:1" json:"numero_factura_inicial"`
	PDFDownloadDir  string    `gorm:"column:directorio_descargas_pdf" json:"directorio_descargas_pdf"`
	PDFViewer       string    `gorm:"column:visor_pdf_personalizado" json:"visor_pdf_personalizado"`
	UpdatedAt       time.Time `gorm:"column:fecha_actualizacion" json:"fecha_actualizacion"`
}

func (Organization) TableName() string { return "organizacion" }
