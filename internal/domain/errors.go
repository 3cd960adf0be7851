package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrOrderNotFound    = errors.New("order not found")

	// ErrDuplicateOrderToken signals a unique_order_id collision; the caller
	// regenerates the token and retries.
	ErrDuplicateOrderToken = errors.New("duplicate order token")
)

// ValidationError is a client-visible request problem, surfaced as 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StockError is the all-or-nothing stock shortfall failure: no order row is
// created and no stock is decremented for any line. Treated as a validation
// failure at the HTTP boundary.
type StockError struct {
	ProductName string
	VariantName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	name := e.ProductName
	if e.VariantName != "" {
		name += " - " + e.VariantName
	}
	return fmt.Sprintf("not enough stock for %s. Available: %d, Requested: %d",
		name, e.Available, e.Requested)
}

// AuthorizationError is a mutating request without sufficient privilege.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// IntegrityError covers non-user-actionable persistence failures such as
// token-retry exhaustion. Surfaced as 500.
type IntegrityError struct {
	Op  string
	Err error
}

func (e *IntegrityError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *IntegrityError) Unwrap() error { return e.Err }

// NotificationError wraps a mail transport failure. It is logged at the
// dispatcher boundary and never propagated to the order caller.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return "notification to " + e.Recipient + ": " + e.Err.Error()
}
func (e *NotificationError) Unwrap() error { return e.Err }

// IsValidation reports whether err should map to a 400 response.
func IsValidation(err error) bool {
	var ve *ValidationError
	var se *StockError
	return errors.As(err, &ve) || errors.As(err, &se)
}
