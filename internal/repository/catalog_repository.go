package repository

import (
	"context"

	"github.com/pharmakart/pharmacy-api/internal/domain"
)

type ProductFilter struct {
	CategoryID  *uint
	PopularOnly bool
}

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id uint) (*domain.Category, error)
	SaveCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id uint) error

	ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uint) (*domain.Product, error)
	SaveProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id uint) error

	ListVariants(ctx context.Context, productID uint) ([]domain.ProductVariant, error)
	GetVariant(ctx context.Context, id uint) (*domain.ProductVariant, error)
	SaveVariant(ctx context.Context, v *domain.ProductVariant) error
	DeleteVariant(ctx context.Context, id uint) error
}
