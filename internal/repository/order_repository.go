package repository

import (
	"context"

	"github.com/pharmakart/pharmacy-api/internal/domain"
)

type OrderRepository interface {
	// CreateOrder resolves, validates and decrements stock for every line and
	// persists the order with its items inside one transaction. On return the
	// order carries its items, snapshot prices and computed total.
	CreateOrder(ctx context.Context, order *domain.Order, lines []domain.OrderLine) error

	FindByToken(ctx context.Context, token string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)

	// UpdateStatus moves the order from one status to another, guarded by the
	// expected current status so concurrent transitions cannot both apply.
	UpdateStatus(ctx context.Context, token string, from, to domain.OrderStatus) error
}
