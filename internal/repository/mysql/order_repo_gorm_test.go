package mysql

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pharmakart/pharmacy-api/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive across the pool
	// and serializes concurrent transactions the way MySQL row locks would
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Category{},
		&domain.Product{},
		&domain.ProductVariant{},
		&domain.Order{},
		&domain.OrderItem{},
	))
	return db
}

// seedCatalog creates one category with one product (price 8.00, stock 4)
// carrying one variant (price 12.50, stock 5).
func seedCatalog(t *testing.T, db *gorm.DB) (*domain.Product, *domain.ProductVariant) {
	t.Helper()

	category := domain.Category{Name: "Pain Relief"}
	require.NoError(t, db.Create(&category).Error)

	product := domain.Product{
		Name:       "Paracetamol",
		CategoryID: category.ID,
		Price:      decimal.NewFromFloat(8.00),
		Stock:      4,
	}
	require.NoError(t, db.Create(&product).Error)

	variant := domain.ProductVariant{
		ProductID: product.ID,
		Name:      "500mg",
		Price:     decimal.NewFromFloat(12.50),
		Stock:     5,
	}
	require.NoError(t, db.Create(&variant).Error)

	return &product, &variant
}

func testOrder(token string) *domain.Order {
	return &domain.Order{
		UniqueOrderID:   token,
		Email:           "customer@example.com",
		ShippingAddress: "1 Main St, Springfield",
		PaymentMethod:   "cod",
		Status:          domain.StatusPending,
	}
}

func variantStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var v domain.ProductVariant
	require.NoError(t, db.First(&v, id).Error)
	return v.Stock
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&count).Error)
	return count
}

func TestOrderRepo_CreateOrder_TotalsAndSnapshots(t *testing.T) {
	db := newTestDB(t)
	product, variant := seedCatalog(t, db)
	repo := NewOrderRepository(db)

	order := testOrder("ORD-AB12CD34")
	err := repo.CreateOrder(context.Background(), order, []domain.OrderLine{
		{ProductID: product.ID, VariantID: &variant.ID, Quantity: 2},
		{ProductID: product.ID, Quantity: 1},
	})
	require.NoError(t, err)

	// total = 2*12.50 + 1*8.00
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromFloat(33.00)),
		"total %s", order.TotalPrice)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Paracetamol", order.Items[0].ProductName)
	assert.Equal(t, "500mg", order.Items[0].VariantName)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromFloat(12.50)))
	assert.Equal(t, "", order.Items[1].VariantName)
	assert.True(t, order.Items[1].Price.Equal(decimal.NewFromFloat(8.00)))

	assert.Equal(t, 3, variantStock(t, db, variant.ID))
	var p domain.Product
	require.NoError(t, db.First(&p, product.ID).Error)
	assert.Equal(t, 3, p.Stock)

	// catalog price changes must not touch the snapshot
	require.NoError(t, db.Model(&domain.ProductVariant{}).Where("id = ?", variant.ID).
		Update("price", decimal.NewFromFloat(99.99)).Error)
	stored, err := repo.FindByToken(context.Background(), "ORD-AB12CD34")
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromFloat(12.50)))
	assert.True(t, stored.TotalPrice.Equal(decimal.NewFromFloat(33.00)))
}

func TestOrderRepo_CreateOrder_ShortfallRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	product, variant := seedCatalog(t, db)
	repo := NewOrderRepository(db)

	// first line is satisfiable, second exceeds the product stock
	err := repo.CreateOrder(context.Background(), testOrder("ORD-AB12CD34"), []domain.OrderLine{
		{ProductID: product.ID, VariantID: &variant.ID, Quantity: 2},
		{ProductID: product.ID, Quantity: 9},
	})

	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Paracetamol", se.ProductName)
	assert.Equal(t, 4, se.Available)
	assert.Equal(t, 9, se.Requested)

	assert.Equal(t, int64(0), orderCount(t, db))
	assert.Equal(t, 5, variantStock(t, db, variant.ID))
	var p domain.Product
	require.NoError(t, db.First(&p, product.ID).Error)
	assert.Equal(t, 4, p.Stock)
}

func TestOrderRepo_CreateOrder_DuplicateLinesAggregate(t *testing.T) {
	db := newTestDB(t)
	product, variant := seedCatalog(t, db)
	repo := NewOrderRepository(db)

	// 3+3 against stock 5 must fail on the aggregate, not per line
	err := repo.CreateOrder(context.Background(), testOrder("ORD-AB12CD34"), []domain.OrderLine{
		{ProductID: product.ID, VariantID: &variant.ID, Quantity: 3},
		{ProductID: product.ID, VariantID: &variant.ID, Quantity: 3},
	})
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 5, se.Available)
	assert.Equal(t, 6, se.Requested)
	assert.Equal(t, int64(0), orderCount(t, db))
	assert.Equal(t, 5, variantStock(t, db, variant.ID))

	// 2+3 fits exactly and collapses into one item
	order := testOrder("ORD-EF56GH78")
	require.NoError(t, repo.CreateOrder(context.Background(), order, []domain.OrderLine{
		{ProductID: product.ID, VariantID: &variant.ID, Quantity: 2},
		{ProductID: product.ID, VariantID: &variant.ID, Quantity: 3},
	}))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Quantity)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromFloat(62.50)))
	assert.Equal(t, 0, variantStock(t, db, variant.ID))
}

func TestOrderRepo_CreateOrder_DuplicateToken(t *testing.T) {
	db := newTestDB(t)
	product, variant := seedCatalog(t, db)
	repo := NewOrderRepository(db)

	lines := []domain.OrderLine{{ProductID: product.ID, VariantID: &variant.ID, Quantity: 1}}
	require.NoError(t, repo.CreateOrder(context.Background(), testOrder("ORD-AB12CD34"), lines))

	err := repo.CreateOrder(context.Background(), testOrder("ORD-AB12CD34"), lines)
	assert.ErrorIs(t, err, domain.ErrDuplicateOrderToken)
}

func TestOrderRepo_CreateOrder_LastUnitGoesToExactlyOne(t *testing.T) {
	db := newTestDB(t)
	product, variant := seedCatalog(t, db)
	require.NoError(t, db.Model(&domain.ProductVariant{}).Where("id = ?", variant.ID).
		Update("stock", 1).Error)
	repo := NewOrderRepository(db)

	lines := []domain.OrderLine{{ProductID: product.ID, VariantID: &variant.ID, Quantity: 1}}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			errs[i] = repo.CreateOrder(context.Background(), testOrder(token), lines)
		}(i, domain.NewOrderToken())
	}
	wg.Wait()

	var succeeded, shortfall int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var se *domain.StockError
		if assert.ErrorAs(t, err, &se) {
			shortfall++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, shortfall)
	assert.Equal(t, int64(1), orderCount(t, db))
	assert.Equal(t, 0, variantStock(t, db, variant.ID))
}

func TestOrderRepo_UpdateStatus_GuardedByCurrentStatus(t *testing.T) {
	db := newTestDB(t)
	product, variant := seedCatalog(t, db)
	repo := NewOrderRepository(db)

	require.NoError(t, repo.CreateOrder(context.Background(), testOrder("ORD-AB12CD34"),
		[]domain.OrderLine{{ProductID: product.ID, VariantID: &variant.ID, Quantity: 1}}))

	ctx := context.Background()
	require.NoError(t, repo.UpdateStatus(ctx, "ORD-AB12CD34", domain.StatusPending, domain.StatusPaid))

	stored, err := repo.FindByToken(ctx, "ORD-AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, stored.Status)

	// a second transition from the stale pending state must not apply
	err = repo.UpdateStatus(ctx, "ORD-AB12CD34", domain.StatusPending, domain.StatusCancelled)
	assert.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	stored, err = repo.FindByToken(ctx, "ORD-AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, stored.Status)

	err = repo.UpdateStatus(ctx, "ORD-MISSING1", domain.StatusPending, domain.StatusPaid)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
