package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Products    []Product `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

type Product struct {
	ID          uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string           `json:"name" gorm:"size:200;not null"`
	CategoryID  uint             `json:"category_id" gorm:"index;not null"`
	Category    Category         `json:"-"`
	Description string           `json:"description" gorm:"type:text"`
	Price       decimal.Decimal  `json:"price" gorm:"type:decimal(10,2);not null"`
	OldPrice    *decimal.Decimal `json:"old_price,omitempty" gorm:"type:decimal(10,2)"`
	Stock       int              `json:"stock" gorm:"not null;default:0"`
	Image       string           `json:"image" gorm:"size:255"`
	IsPopular   bool             `json:"is_popular" gorm:"index"`
	Variants    []ProductVariant `json:"variants" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProductVariant is a purchasable configuration of a product (dosage, pack
// size) carrying its own price and stock. A product with no variants is sold
// directly at Product.Price against Product.Stock.
type ProductVariant struct {
	ID        uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint            `json:"product_id" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock     int             `json:"stock" gorm:"not null;default:0"`
}
