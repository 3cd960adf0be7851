package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmakart/pharmacy-api/internal/domain"
	"github.com/pharmakart/pharmacy-api/internal/repository"
)

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

// resolvedLine is a locked catalog row paired with its requested quantity.
// Variant-less products sell directly off the product row.
type resolvedLine struct {
	line    domain.OrderLine
	product domain.Product
	variant *domain.ProductVariant
}

func (rl *resolvedLine) unitPrice() decimal.Decimal {
	if rl.variant != nil {
		return rl.variant.Price
	}
	return rl.product.Price
}

func (rl *resolvedLine) available() int {
	if rl.variant != nil {
		return rl.variant.Stock
	}
	return rl.product.Stock
}

// CreateOrder runs the whole check-decrement-create sequence in a single
// transaction. Every target row is locked with SELECT ... FOR UPDATE and all
// lines are validated before any stock is touched, so two concurrent orders
// for the last unit serialize: one commits, the other fails with a
// StockError and leaves nothing behind.
//
// Lines naming the same variant (or bare product) are merged up front.
// FOR UPDATE does not block within the owning transaction, so resolving the
// same row twice would hand out two independent copies whose decrements
// overwrite each other; the aggregate quantity must be checked against one
// copy of the row.
func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order, lines []domain.OrderLine) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged := mergeLines(lines)
		resolved := make([]resolvedLine, 0, len(merged))
		for _, line := range merged {
			rl, err := resolveLine(tx, line)
			if err != nil {
				return err
			}
			if rl.available() < line.Quantity {
				variantName := ""
				if rl.variant != nil {
					variantName = rl.variant.Name
				}
				return &domain.StockError{
					ProductName: rl.product.Name,
					VariantName: variantName,
					Available:   rl.available(),
					Requested:   line.Quantity,
				}
			}
			resolved = append(resolved, *rl)
		}

		total := decimal.Zero
		items := make([]domain.OrderItem, 0, len(resolved))
		for i := range resolved {
			rl := &resolved[i]
			if rl.variant != nil {
				rl.variant.Stock -= rl.line.Quantity
				if err := tx.Save(rl.variant).Error; err != nil {
					return err
				}
			} else {
				rl.product.Stock -= rl.line.Quantity
				if err := tx.Model(&domain.Product{}).Where("id = ?", rl.product.ID).
					Update("stock", rl.product.Stock).Error; err != nil {
					return err
				}
			}

			price := rl.unitPrice()
			item := domain.OrderItem{
				ProductID:   rl.product.ID,
				ProductName: rl.product.Name,
				Quantity:    rl.line.Quantity,
				Price:       price,
			}
			if rl.variant != nil {
				item.VariantID = &rl.variant.ID
				item.VariantName = rl.variant.Name
			}
			items = append(items, item)
			total = total.Add(price.Mul(decimal.NewFromInt(int64(rl.line.Quantity))))
		}

		order.Items = items
		order.TotalPrice = total
		if err := tx.Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateOrderToken
			}
			return err
		}
		return nil
	})
}

// mergeLines collapses lines targeting the same variant (or bare product)
// into one line with the summed quantity, preserving first-seen order.
func mergeLines(lines []domain.OrderLine) []domain.OrderLine {
	type key struct {
		productID uint
		variantID uint
	}
	index := make(map[key]int, len(lines))
	merged := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		k := key{productID: line.ProductID}
		if line.VariantID != nil {
			k = key{variantID: *line.VariantID}
		}
		if i, ok := index[k]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[k] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// forUpdate applies the row lock on dialects that support it. SQLite has no
// FOR UPDATE; its writes serialize on the database lock instead.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func resolveLine(tx *gorm.DB, line domain.OrderLine) (*resolvedLine, error) {
	rl := resolvedLine{line: line}
	if line.VariantID != nil {
		var v domain.ProductVariant
		if err := forUpdate(tx).First(&v, *line.VariantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrVariantNotFound
			}
			return nil, err
		}
		rl.variant = &v
		if err := tx.First(&rl.product, v.ProductID).Error; err != nil {
			return nil, err
		}
		return &rl, nil
	}

	if err := forUpdate(tx).First(&rl.product, line.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &rl, nil
}

func (r *orderRepo) FindByToken(ctx context.Context, token string) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("unique_order_id = ?", token).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, token string, from, to domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("unique_order_id = ? AND status = ?", token, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Order{}).
			Where("unique_order_id = ?", token).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrOrderNotFound
		}
		return domain.Validationf("status", "order status changed concurrently, re-read and retry")
	}
	return nil
}
