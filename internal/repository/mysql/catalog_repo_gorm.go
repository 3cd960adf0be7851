package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pharmakart/pharmacy-api/internal/domain"
	"github.com/pharmakart/pharmacy-api/internal/repository"
)

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) repository.CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := r.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) GetCategory(ctx context.Context, id uint) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepo) SaveCategory(ctx context.Context, c *domain.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// DeleteCategory removes the category and everything underneath it in one
// transaction, mirroring the FK cascade.
func (r *catalogRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productIDs []uint
		if err := tx.Model(&domain.Product{}).Where("category_id = ?", id).
			Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if len(productIDs) > 0 {
			if err := tx.Where("product_id IN ?", productIDs).
				Delete(&domain.ProductVariant{}).Error; err != nil {
				return err
			}
			if err := tx.Where("category_id = ?", id).
				Delete(&domain.Product{}).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&domain.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrCategoryNotFound
		}
		return nil
	})
}

func (r *catalogRepo) ListProducts(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	query := r.db.WithContext(ctx).Model(&domain.Product{}).
		Preload("Variants").
		Preload("Category")
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.PopularOnly {
		query = query.Where("is_popular = ?", true)
	}

	var out []domain.Product
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		Preload("Category").
		First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepo) SaveProduct(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *catalogRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).
			Delete(&domain.ProductVariant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrProductNotFound
		}
		return nil
	})
}

func (r *catalogRepo) ListVariants(ctx context.Context, productID uint) ([]domain.ProductVariant, error) {
	query := r.db.WithContext(ctx).Model(&domain.ProductVariant{})
	if productID != 0 {
		query = query.Where("product_id = ?", productID)
	}

	var out []domain.ProductVariant
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) GetVariant(ctx context.Context, id uint) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *catalogRepo) SaveVariant(ctx context.Context, v *domain.ProductVariant) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *catalogRepo) DeleteVariant(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.ProductVariant{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}
