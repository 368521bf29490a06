package models

import "github.com/shopspring/decimal"

type Category struct {
	BaseModel
	Name     string    `gorm:"not null" json:"name"`
	Products []Product `json:"products,omitempty"`
}

// DeletionPolicy implements Deletable.
func (Category) DeletionPolicy() DeletionPolicy { return DeletionGuardedHard }

// ProductStatus toggles catalog visibility.
type ProductStatus int

const (
	ProductHidden ProductStatus = 0
	ProductActive ProductStatus = 1
)

type Product struct {
	BaseModel
	Name        string          `gorm:"not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	CategoryID  *uint           `gorm:"index" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	Status      ProductStatus   `gorm:"not null;index" json:"status"`
}

// DeletionPolicy implements Deletable.
func (Product) DeletionPolicy() DeletionPolicy { return DeletionSoft }
