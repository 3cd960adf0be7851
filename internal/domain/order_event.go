package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	OrderID       uint            `json:"orderId"`
	UniqueOrderID string          `json:"uniqueOrderId"`
	Email         string          `json:"email"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	ItemCount     int             `json:"itemCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}
