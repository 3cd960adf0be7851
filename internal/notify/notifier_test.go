package notify_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pharmakart/pharmacy-api/internal/domain"
	"github.com/pharmakart/pharmacy-api/internal/mocks"
	"github.com/pharmakart/pharmacy-api/internal/notify"
)

func testOrder() *domain.Order {
	vid := uint(10)
	return &domain.Order{
		ID:              1,
		UniqueOrderID:   "ORD-AB12CD34",
		Email:           "customer@example.com",
		Phone:           "555-0100",
		ShippingAddress: "1 Main St, Springfield",
		PaymentMethod:   "cod",
		Status:          domain.StatusPending,
		TotalPrice:      decimal.NewFromFloat(25.00),
		CreatedAt:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{
				ProductID:   1,
				VariantID:   &vid,
				ProductName: "Paracetamol",
				VariantName: "500mg",
				Quantity:    2,
				Price:       decimal.NewFromFloat(12.50),
			},
		},
	}
}

func newTestNotifier(mailer notify.Mailer) *notify.Notifier {
	return notify.New(notify.Config{
		From:       "no-reply@pharmakart.local",
		AdminEmail: "admin@pharmakart.local",
	}, mailer, zerolog.Nop())
}

func TestNotifier_OrderPlaced_SendsBoth(t *testing.T) {
	mailer := new(mocks.MockMailer)

	var customerBody, adminBody string
	mailer.On("Send", []string{"customer@example.com"},
		"Order Confirmation - Order ORD-AB12CD34", mock.AnythingOfType("string")).
		Return(nil).Run(func(args mock.Arguments) {
		customerBody = args.Get(2).(string)
	})
	mailer.On("Send", []string{"admin@pharmakart.local"},
		"New Order Notification - Order ORD-AB12CD34", mock.AnythingOfType("string")).
		Return(nil).Run(func(args mock.Arguments) {
		adminBody = args.Get(2).(string)
	})

	n := newTestNotifier(mailer)
	n.OrderPlaced(testOrder(), "")

	mailer.AssertExpectations(t)

	assert.Contains(t, customerBody, "Thank you for your order, Guest!")
	assert.Contains(t, customerBody, "ORD-AB12CD34")
	assert.Contains(t, customerBody, "Total: $25")
	assert.Contains(t, customerBody, "2 x Paracetamol (500mg)")

	assert.Contains(t, adminBody, "A new order has been placed.")
	assert.Contains(t, adminBody, "Customer Email: customer@example.com")
	assert.Contains(t, adminBody, "1 Main St, Springfield")
}

func TestNotifier_OrderPlaced_NamedCustomer(t *testing.T) {
	mailer := new(mocks.MockMailer)

	var customerBody string
	mailer.On("Send", []string{"customer@example.com"}, mock.Anything, mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		customerBody = args.Get(2).(string)
	})
	mailer.On("Send", []string{"admin@pharmakart.local"}, mock.Anything, mock.Anything).Return(nil)

	n := newTestNotifier(mailer)
	n.OrderPlaced(testOrder(), "Jane Doe")

	assert.Contains(t, customerBody, "Thank you for your order, Jane Doe!")
}

func TestNotifier_OrderPlaced_FailuresAreIsolated(t *testing.T) {
	tests := []struct {
		name    string
		failing string
		working string
	}{
		{name: "admin failure does not block customer", failing: "admin@pharmakart.local", working: "customer@example.com"},
		{name: "customer failure does not block admin", failing: "customer@example.com", working: "admin@pharmakart.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(mocks.MockMailer)
			mailer.On("Send", []string{tt.failing}, mock.Anything, mock.Anything).
				Return(errors.New("smtp: connection refused"))
			mailer.On("Send", []string{tt.working}, mock.Anything, mock.Anything).
				Return(nil)

			n := newTestNotifier(mailer)
			// must not panic or surface the failure
			n.OrderPlaced(testOrder(), "")

			mailer.AssertExpectations(t)
		})
	}
}

func TestNotifier_Prescription(t *testing.T) {
	t.Run("sends admin email", func(t *testing.T) {
		mailer := new(mocks.MockMailer)

		var body string
		mailer.On("Send", []string{"admin@pharmakart.local"},
			"New Prescription Request", mock.AnythingOfType("string")).
			Return(nil).Run(func(args mock.Arguments) {
			body = args.Get(2).(string)
		})

		n := newTestNotifier(mailer)
		err := n.Prescription(notify.PrescriptionRequest{
			Name:    "John Smith",
			Email:   "john@example.com",
			Phone:   "555-0199",
			Message: "Requesting refill of my usual prescription.",
		})

		assert.NoError(t, err)
		assert.Contains(t, body, "John Smith")
		assert.Contains(t, body, "Requesting refill")
		mailer.AssertExpectations(t)
	})

	t.Run("transport failure surfaces as notification error", func(t *testing.T) {
		mailer := new(mocks.MockMailer)
		mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("smtp: timeout"))

		n := newTestNotifier(mailer)
		err := n.Prescription(notify.PrescriptionRequest{Name: "John", Email: "j@example.com", Message: "hi"})

		var nerr *domain.NotificationError
		assert.ErrorAs(t, err, &nerr)
	})
}
