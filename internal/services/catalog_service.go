package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pharmakart/pharmacy-api/internal/domain"
	"github.com/pharmakart/pharmacy-api/internal/repository"
)

const catalogCacheTTL = time.Minute

type CatalogService struct {
	repo        repository.CatalogRepository
	redisClient *redis.Client
}

func NewCatalogService(r repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: r}
}

func (s *CatalogService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// --- Categories ---

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*domain.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *domain.Category) error {
	if c.Name == "" {
		return domain.Validationf("name", "name is required")
	}
	return s.repo.SaveCategory(ctx, c)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == 0 {
		return domain.Validationf("id", "category id is required")
	}
	if c.Name == "" {
		return domain.Validationf("name", "name is required")
	}
	if _, err := s.repo.GetCategory(ctx, c.ID); err != nil {
		return err
	}
	return s.repo.SaveCategory(ctx, c)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.repo.DeleteCategory(ctx, id)
}

// --- Products ---

func (s *CatalogService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, f)
}

// GetProduct reads through a short-lived redis cache; catalog browsing is
// read-heavy and slightly stale stock on the detail page is acceptable. The
// order path never uses this cache.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	cacheKey := fmt.Sprintf("product:%d", id)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p domain.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, p)
	return p, nil
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, v any) {
	if s.redisClient == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		s.redisClient.Set(ctx, key, data, catalogCacheTTL)
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := s.validateProduct(ctx, p); err != nil {
		return err
	}
	return s.repo.SaveProduct(ctx, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		return domain.Validationf("id", "product id is required")
	}
	if err := s.validateProduct(ctx, p); err != nil {
		return err
	}
	if err := s.repo.SaveProduct(ctx, p); err != nil {
		return err
	}
	s.dropProductCache(ctx, p.ID)
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.dropProductCache(ctx, id)
	return nil
}

func (s *CatalogService) validateProduct(ctx context.Context, p *domain.Product) error {
	if p.Name == "" {
		return domain.Validationf("name", "name is required")
	}
	if p.Price.IsNegative() {
		return domain.Validationf("price", "price must not be negative")
	}
	if p.CategoryID == 0 {
		return domain.Validationf("category_id", "category is required")
	}
	if _, err := s.repo.GetCategory(ctx, p.CategoryID); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return domain.Validationf("category_id", "category %d does not exist", p.CategoryID)
		}
		return err
	}
	return nil
}

// --- Variants ---

func (s *CatalogService) ListVariants(ctx context.Context, productID uint) ([]domain.ProductVariant, error) {
	return s.repo.ListVariants(ctx, productID)
}

// GetVariant reads through the same cache as GetProduct; the order service
// deletes these keys after each stock decrement.
func (s *CatalogService) GetVariant(ctx context.Context, id uint) (*domain.ProductVariant, error) {
	cacheKey := fmt.Sprintf("variant:%d", id)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var v domain.ProductVariant
			if err := json.Unmarshal([]byte(cached), &v); err == nil {
				return &v, nil
			}
		}
	}

	v, err := s.repo.GetVariant(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKey, v)
	return v, nil
}

func (s *CatalogService) CreateVariant(ctx context.Context, v *domain.ProductVariant) error {
	if err := s.validateVariant(ctx, v); err != nil {
		return err
	}
	if err := s.repo.SaveVariant(ctx, v); err != nil {
		return err
	}
	s.dropCache(ctx, fmt.Sprintf("product:%d", v.ProductID))
	return nil
}

func (s *CatalogService) UpdateVariant(ctx context.Context, v *domain.ProductVariant) error {
	if v.ID == 0 {
		return domain.Validationf("id", "variant id is required")
	}
	if err := s.validateVariant(ctx, v); err != nil {
		return err
	}
	if err := s.repo.SaveVariant(ctx, v); err != nil {
		return err
	}
	s.dropCache(ctx, fmt.Sprintf("product:%d", v.ProductID), fmt.Sprintf("variant:%d", v.ID))
	return nil
}

func (s *CatalogService) DeleteVariant(ctx context.Context, id uint) error {
	v, err := s.repo.GetVariant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteVariant(ctx, id); err != nil {
		return err
	}
	s.dropCache(ctx, fmt.Sprintf("product:%d", v.ProductID), fmt.Sprintf("variant:%d", id))
	return nil
}

func (s *CatalogService) validateVariant(ctx context.Context, v *domain.ProductVariant) error {
	if v.Name == "" {
		return domain.Validationf("name", "name is required")
	}
	if v.Price.IsNegative() {
		return domain.Validationf("price", "price must not be negative")
	}
	if v.Stock < 0 {
		return domain.Validationf("stock", "stock must not be negative")
	}
	if v.ProductID == 0 {
		return domain.Validationf("product_id", "product is required")
	}
	if _, err := s.repo.GetProduct(ctx, v.ProductID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.Validationf("product_id", "product %d does not exist", v.ProductID)
		}
		return err
	}
	return nil
}

func (s *CatalogService) dropProductCache(ctx context.Context, productID uint) {
	s.dropCache(ctx, fmt.Sprintf("product:%d", productID))
}

func (s *CatalogService) dropCache(ctx context.Context, keys ...string) {
	if s.redisClient == nil {
		return
	}
	s.redisClient.Del(ctx, keys...)
}
