package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pharmakart/pharmacy-api/internal/domain"
	"github.com/pharmakart/pharmacy-api/internal/mocks"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	tests := []struct {
		name          string
		product       domain.Product
		setupMocks    func(*mocks.MockCatalogRepository)
		expectedError string
	}{
		{
			name:    "valid product saved",
			product: domain.Product{Name: "Ibuprofen", CategoryID: 3, Price: decimal.NewFromFloat(4.99)},
			setupMocks: func(repo *mocks.MockCatalogRepository) {
				repo.On("GetCategory", mock.Anything, uint(3)).
					Return(&domain.Category{ID: 3, Name: "Pain Relief"}, nil)
				repo.On("SaveProduct", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)
			},
		},
		{
			name:          "missing name rejected",
			product:       domain.Product{CategoryID: 3},
			setupMocks:    func(*mocks.MockCatalogRepository) {},
			expectedError: "name is required",
		},
		{
			name:          "negative price rejected",
			product:       domain.Product{Name: "Ibuprofen", CategoryID: 3, Price: decimal.NewFromFloat(-1)},
			setupMocks:    func(*mocks.MockCatalogRepository) {},
			expectedError: "price must not be negative",
		},
		{
			name:    "unknown category rejected",
			product: domain.Product{Name: "Ibuprofen", CategoryID: 99, Price: decimal.NewFromFloat(4.99)},
			setupMocks: func(repo *mocks.MockCatalogRepository) {
				repo.On("GetCategory", mock.Anything, uint(99)).
					Return(nil, domain.ErrCategoryNotFound)
			},
			expectedError: "category 99 does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockCatalogRepository)
			tt.setupMocks(repo)

			service := NewCatalogService(repo)
			err := service.CreateProduct(context.Background(), &tt.product)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.True(t, domain.IsValidation(err))
				repo.AssertNotCalled(t, "SaveProduct", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_CreateVariant(t *testing.T) {
	tests := []struct {
		name          string
		variant       domain.ProductVariant
		setupMocks    func(*mocks.MockCatalogRepository)
		expectedError string
	}{
		{
			name:    "valid variant saved",
			variant: domain.ProductVariant{ProductID: 1, Name: "500mg", Price: decimal.NewFromFloat(12.50), Stock: 5},
			setupMocks: func(repo *mocks.MockCatalogRepository) {
				repo.On("GetProduct", mock.Anything, uint(1)).
					Return(&domain.Product{ID: 1, Name: "Paracetamol"}, nil)
				repo.On("SaveVariant", mock.Anything, mock.AnythingOfType("*domain.ProductVariant")).Return(nil)
			},
		},
		{
			name:          "negative stock rejected",
			variant:       domain.ProductVariant{ProductID: 1, Name: "500mg", Stock: -1},
			setupMocks:    func(*mocks.MockCatalogRepository) {},
			expectedError: "stock must not be negative",
		},
		{
			name:    "unknown product rejected",
			variant: domain.ProductVariant{ProductID: 77, Name: "500mg"},
			setupMocks: func(repo *mocks.MockCatalogRepository) {
				repo.On("GetProduct", mock.Anything, uint(77)).
					Return(nil, domain.ErrProductNotFound)
			},
			expectedError: "product 77 does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockCatalogRepository)
			tt.setupMocks(repo)

			service := NewCatalogService(repo)
			err := service.CreateVariant(context.Background(), &tt.variant)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				repo.AssertNotCalled(t, "SaveVariant", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_GetProduct(t *testing.T) {
	repo := new(mocks.MockCatalogRepository)
	repo.On("GetProduct", mock.Anything, uint(5)).
		Return(&domain.Product{ID: 5, Name: "Vitamin C"}, nil)

	service := NewCatalogService(repo)

	product, err := service.GetProduct(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, "Vitamin C", product.Name)
	repo.AssertExpectations(t)
}
