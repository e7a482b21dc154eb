package domain

import (
	"time"

	"github.com/nippysky/marobi/pkg/common"
	"gorm.io/gorm"
)

const (
	ProductActive   = "active"
	ProductArchived = "archived"
)

// Product is a catalog entry. Stock lives on its variants.
type Product struct {
	ID          int64     `gorm:"primaryKey" json:"id,string"`
	Name        string    `gorm:"size:200;index" json:"name"`
	Category    string    `gorm:"size:100;index" json:"category"`
	Description string    `json:"description"`
	Images      []string  `gorm:"serializer:json;type:text" json:"images"`
	Prices      Prices    `gorm:"embedded" json:"prices"`
	Status      string    `gorm:"size:16;index;default:active" json:"status"`
	Variants    []Variant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == 0 {
		p.ID = common.UUIDint64()
	}
	if p.Status == "" {
		p.Status = ProductActive
	}
	return nil
}

// PrimaryImage is the first image, used for order line snapshots.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Variant is a sellable (color, size) combination of a product. Color and
// Size hold common.NA when the attribute does not apply.
type Variant struct {
	ID        int64     `gorm:"primaryKey" json:"id,string"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_variant_combo" json:"product_id,string"`
	Color     string    `gorm:"size:50;not null;uniqueIndex:idx_variant_combo" json:"color"`
	Size      string    `gorm:"size:50;not null;uniqueIndex:idx_variant_combo" json:"size"`
	Stock     int       `gorm:"not null;default:0;check:chk_variant_stock,stock >= 0" json:"stock"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Variant) TableName() string {
	return "product_variant"
}

func (v *Variant) BeforeCreate(*gorm.DB) error {
	if v.ID == 0 {
		v.ID = common.UUIDint64()
	}
	v.Color = common.IfEmptyStr(v.Color, common.NA)
	v.Size = common.IfEmptyStr(v.Size, common.NA)
	return nil
}
