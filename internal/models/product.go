package models

import "time"

// Product is a sellable catalog entry. Column names follow the historical
// Spanish schema so existing databases keep working.
type Product struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"column:nombre;not null" json:"nombre"`
	Reference      string    `gorm:"column:referencia;uniqueIndex;not null" json:"referencia"`
	Price          float64   `gorm:"column:precio;not null" json:"precio"`
	Category       string    `gorm:"column:categoria" json:"categoria"`
	Description    string    `gorm:"column:descripcion" json:"descripcion"`
	ImagePath      string    `gorm:"column:imagen_path" json:"imagen_path"`
	RecommendedVAT float64   `gorm:"column:iva_recomendado;default:21" json:"iva_recomendado"`
	CreatedAt      time.Time `gorm:"column:fecha_creacion" json:"fecha_creacion"`
}

func (Product) TableName() string { return "productos" }
