package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	zlog "github.com/rs/zerolog/log"

	"github.com/pharmakart/pharmacy-api/internal/domain"
	rabbit "github.com/pharmakart/pharmacy-api/internal/infra/rabbitmq"
	"github.com/pharmakart/pharmacy-api/internal/repository"
)

// OrderNotifier is the transactional-email boundary. Implementations absorb
// their own failures; order success never depends on mail.
type OrderNotifier interface {
	OrderPlaced(order *domain.Order, customerName string)
}

// maxTokenAttempts bounds unique_order_id regeneration. At 36^8 tokens an
// exhausted retry loop means something other than bad luck.
const maxTokenAttempts = 5

type OrderService struct {
	repo        repository.OrderRepository
	publisher   rabbit.PublisherInterface
	notifier    OrderNotifier
	redisClient *redis.Client
}

func NewOrderService(r repository.OrderRepository, pub rabbit.PublisherInterface, n OrderNotifier) *OrderService {
	return &OrderService{
		repo:      r,
		publisher: pub,
		notifier:  n,
	}
}

func (s *OrderService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

type PlaceOrderInput struct {
	Email           string
	Phone           string
	ShippingAddress string
	PaymentMethod   string

	// UserID/CustomerName come from the authenticated principal when there is
	// one; both stay empty for guest checkout.
	UserID       *string
	CustomerName string

	Lines []domain.OrderLine
}

func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if err := validatePlaceOrder(in); err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:          in.UserID,
		Email:           in.Email,
		Phone:           in.Phone,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Status:          domain.StatusPending,
	}

	var err error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		order.UniqueOrderID = domain.NewOrderToken()
		order.Items = nil
		err = s.repo.CreateOrder(ctx, order, in.Lines)
		if errors.Is(err, domain.ErrDuplicateOrderToken) {
			continue
		}
		break
	}
	if errors.Is(err, domain.ErrDuplicateOrderToken) {
		return nil, &domain.IntegrityError{Op: "generate order token", Err: err}
	}
	if err != nil {
		return nil, err
	}

	s.invalidateLineCache(ctx, in.Lines)

	go s.publishOrderCreatedEvent(context.Background(), order)

	if s.notifier != nil {
		s.notifier.OrderPlaced(order, in.CustomerName)
	}

	return order, nil
}

func validatePlaceOrder(in PlaceOrderInput) error {
	if in.Email == "" {
		return domain.Validationf("email", "email is required")
	}
	if in.ShippingAddress == "" {
		return domain.Validationf("shipping_address", "shipping address is required")
	}
	if in.PaymentMethod == "" {
		return domain.Validationf("payment_method", "payment method is required")
	}
	if len(in.Lines) == 0 {
		return domain.Validationf("items", "at least one item is required")
	}
	for i, line := range in.Lines {
		if line.Quantity <= 0 {
			return domain.Validationf("items", "item %d: quantity must be positive", i)
		}
		if line.ProductID == 0 && line.VariantID == nil {
			return domain.Validationf("items", "item %d: product_id or variant_id is required", i)
		}
	}
	return nil
}

// invalidateLineCache drops cached catalog entries whose stock just changed.
func (s *OrderService) invalidateLineCache(ctx context.Context, lines []domain.OrderLine) {
	if s.redisClient == nil {
		return
	}
	keys := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		if line.ProductID != 0 {
			keys = append(keys, fmt.Sprintf("product:%d", line.ProductID))
		}
		if line.VariantID != nil {
			keys = append(keys, fmt.Sprintf("variant:%d", *line.VariantID))
		}
	}
	if len(keys) > 0 {
		s.redisClient.Del(ctx, keys...)
	}
}

func (s *OrderService) publishOrderCreatedEvent(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	evt := domain.OrderCreatedEvent{
		OrderID:       order.ID,
		UniqueOrderID: order.UniqueOrderID,
		Email:         order.Email,
		TotalPrice:    order.TotalPrice,
		ItemCount:     len(order.Items),
		CreatedAt:     order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, "order.created", evt); err != nil {
		zlog.Error().Err(err).Str("order", order.UniqueOrderID).Msg("publish order.created")
	}
}

func (s *OrderService) GetOrderByToken(ctx context.Context, token string) (*domain.Order, error) {
	return s.repo.FindByToken(ctx, token)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

// UpdateOrderStatus moves an order along the status transition table. An
// illegal move is a validation failure, not a server error.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, token, status string) (*domain.Order, error) {
	to, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, &domain.ValidationError{Field: "status", Message: err.Error()}
	}

	order, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(to) {
		return nil, domain.Validationf("status", "cannot transition from %s to %s", order.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, token, order.Status, to); err != nil {
		return nil, err
	}
	order.Status = to
	return order, nil
}
