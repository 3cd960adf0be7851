package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// statusTransitions is the closed set of allowed status moves. Delivered and
// cancelled are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusPaid:
		return StatusPaid, nil
	case StatusShipped:
		return StatusShipped, nil
	case StatusDelivered:
		return StatusDelivered, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", errors.New("invalid order status: " + s)
	}
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	UniqueOrderID   string          `json:"unique_order_id" gorm:"size:20;uniqueIndex;not null"`
	UserID          *string         `json:"user_id,omitempty" gorm:"size:64;index"`
	Email           string          `json:"email" gorm:"size:140;not null"`
	Phone           string          `json:"phone" gorm:"size:50"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text;not null"`
	PaymentMethod   string          `json:"payment_method" gorm:"size:50;not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(20);default:'pending'"`
	TotalPrice      decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2);not null"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem snapshots the product/variant display name and unit price at
// order time, so historical orders keep their value when catalog prices
// change later.
type OrderItem struct {
	ID          uint            `json:"-" gorm:"primaryKey;autoIncrement"`
	OrderID     uint            `json:"-" gorm:"index;not null"`
	ProductID   uint            `json:"product_id" gorm:"index;not null"`
	VariantID   *uint           `json:"variant_id,omitempty" gorm:"index"`
	ProductName string          `json:"product_name" gorm:"size:200"`
	VariantName string          `json:"variant_name,omitempty" gorm:"size:100"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
}

// OrderLine is one requested {product/variant, quantity} entry of an order
// submission, before resolution against the catalog.
type OrderLine struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

const OrderTokenPrefix = "ORD-"

// NewOrderToken returns the external order identifier: ORD- followed by the
// first 8 hex chars of a v4 uuid, uppercased. Collisions are resolved by the
// caller regenerating.
func NewOrderToken() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return OrderTokenPrefix + strings.ToUpper(raw[:8])
}
