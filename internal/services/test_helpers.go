package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmakart/pharmacy-api/internal/domain"
)

func uintPtr(v uint) *uint { return &v }

func testOrderLines() []domain.OrderLine {
	return []domain.OrderLine{
		{ProductID: 1, VariantID: uintPtr(10), Quantity: 2},
	}
}

func testPlaceOrderInput() PlaceOrderInput {
	return PlaceOrderInput{
		Email:           "customer@example.com",
		Phone:           "555-0100",
		ShippingAddress: "1 Main St, Springfield",
		PaymentMethod:   "cod",
		Lines:           testOrderLines(),
	}
}

// fillOrder mimics what the repository does on a successful create.
func fillOrder(order *domain.Order, lines []domain.OrderLine) {
	order.ID = 1
	order.CreatedAt = time.Now()
	total := decimal.Zero
	price := decimal.NewFromFloat(12.50)
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: "Paracetamol",
			VariantName: "500mg",
			Quantity:    line.Quantity,
			Price:       price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	order.TotalPrice = total
}
