package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"
)

const (
	// DeliveryWindow is added to the order date to estimate delivery
	DeliveryWindow = 7 * 24 * time.Hour
	// PublishTimeout bounds a single event publish so the response stays well
	// inside the server write timeout
	PublishTimeout = 3 * time.Second
)

// OrderService реализует логику заказов: создание, оформление корзины, смена статуса, отмена
type OrderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	products  repository.ProductRepository
	tx        repository.TxManager
	publisher events.Publisher
	producer  string
	logger    *slog.Logger
	now       func() time.Time

	publishTimeout time.Duration
}

// NewOrderService wires the order lifecycle. A nil publisher drops events.
func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	tx repository.TxManager,
	publisher events.Publisher,
	producer string,
	logger *slog.Logger,
) *OrderService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orders:    orders,
		carts:     carts,
		products:  products,
		tx:        tx,
		publisher: publisher,
		producer:  producer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },

		publishTimeout: PublishTimeout,
	}
}

// Checkout carries what the buyer supplies besides the lines
type Checkout struct {
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

func validateCheckout(v *validator, c Checkout) {
	a := c.ShippingAddress
	v.check(strings.TrimSpace(a.Name) != "", "shippingAddress.name", "is required")
	v.check(strings.TrimSpace(a.Address) != "", "shippingAddress.address", "is required")
	v.check(strings.TrimSpace(a.City) != "", "shippingAddress.city", "is required")
	v.check(strings.TrimSpace(a.ZipCode) != "", "shippingAddress.zipCode", "is required")
	v.check(strings.TrimSpace(c.PaymentMethod) != "", "paymentMethod", "is required")
}

// Create places an order from an explicit item list. Lines are copied and the
// total is computed once here.
func (s *OrderService) Create(ctx context.Context, userID string, items []domain.OrderItem, c Checkout) (*domain.Order, error) {
	var v validator
	v.check(userID != "", "userId", "is required")
	v.check(len(items) > 0, "items", "at least one item is required")
	for i, it := range items {
		v.check(strings.TrimSpace(it.ProductID) != "", fmt.Sprintf("items[%d].productId", i), "is required")
		v.check(strings.TrimSpace(it.ProductName) != "", fmt.Sprintf("items[%d].productName", i), "is required")
		v.check(it.Quantity >= 1, fmt.Sprintf("items[%d].quantity", i), "must be a positive integer")
		v.check(it.Price >= 0, fmt.Sprintf("items[%d].price", i), "must not be negative")
	}
	validateCheckout(&v, c)
	if err := v.err(); err != nil {
		return nil, err
	}

	lines := make([]domain.OrderItem, len(items))
	copy(lines, items)

	var created *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// capture the category of lines that came without one
		for i := range lines {
			if lines[i].Category != "" {
				continue
			}
			p, err := s.products.GetByID(ctx, lines[i].ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			lines[i].Category = p.Category
		}
		o := s.newOrder(userID, lines, c)
		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishCreated(ctx, created)
	return created, nil
}

// Checkout turns the user's cart into an order and empties the cart
func (s *OrderService) Checkout(ctx context.Context, userID string, c Checkout) (*domain.Order, error) {
	var v validator
	v.check(userID != "", "userId", "is required")
	validateCheckout(&v, c)
	if err := v.err(); err != nil {
		return nil, err
	}

	var created *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUser(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
			return &ValidationError{Fields: []FieldError{{Field: "items", Message: "cart is empty"}}}
		}
		if err != nil {
			return err
		}
		o := s.newOrder(userID, domain.ItemsFromCart(*cart), c)
		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		cart.Clear(s.now())
		if err := s.carts.Save(ctx, cart); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishCreated(ctx, created)
	return created, nil
}

func (s *OrderService) newOrder(userID string, lines []domain.OrderItem, c Checkout) *domain.Order {
	now := s.now()
	eta := now.Add(DeliveryWindow)
	return &domain.Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		Items:             lines,
		Total:             domain.OrderTotal(lines),
		Status:            domain.OrderStatusPending,
		OrderDate:         now,
		EstimatedDelivery: &eta,
		ShippingAddress:   c.ShippingAddress,
		PaymentMethod:     strings.TrimSpace(c.PaymentMethod),
	}
}

// UpdateStatus moves an order to status. Re-asserting the current status is a
// no-op and reports changed=false.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, bool, error) {
	if orderID == "" {
		return nil, false, ErrInvalidInput
	}
	if !status.Valid() {
		return nil, false, &ValidationError{Fields: []FieldError{{Field: "status", Message: "must be one of pending, processing, shipped, delivered, cancelled"}}}
	}
	return s.changeStatus(ctx, orderID, "", status)
}

// Cancel lets the owner cancel an order that is not yet delivered.
// Another user's order reads as not found.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*domain.Order, bool, error) {
	if userID == "" || orderID == "" {
		return nil, false, ErrInvalidInput
	}
	return s.changeStatus(ctx, orderID, userID, domain.OrderStatusCancelled)
}

func (s *OrderService) changeStatus(ctx context.Context, orderID, ownerID string, to domain.OrderStatus) (*domain.Order, bool, error) {
	var (
		updated *domain.Order
		from    domain.OrderStatus
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if ownerID != "" && o.UserID != ownerID {
			return repository.ErrNotFound
		}
		if !domain.CanTransition(o.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
		}
		from = o.Status
		if from == to {
			updated = o
			return nil
		}
		o.Status = to
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if from == to {
		return updated, false, nil
	}
	s.publish(ctx, events.EventOrderStatusChanged, updated.ID, events.OrderStatusChangedPayload{
		OrderID: updated.ID,
		UserID:  updated.UserID,
		From:    from,
		To:      to,
	})
	return updated, true, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, orderID)
}

// GetForUser returns the order only if userID owns it
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *OrderService) publishCreated(ctx context.Context, o *domain.Order) {
	s.publish(ctx, events.EventOrderCreated, o.ID, events.OrderCreatedPayload{
		OrderID: o.ID,
		UserID:  o.UserID,
		Items:   o.Items,
		Total:   o.Total,
		Status:  o.Status,
	})
}

// publish is best effort: the order is already committed, so a client
// disconnect does not abort it and a slow broker is cut off at publishTimeout
func (s *OrderService) publish(ctx context.Context, eventType, orderID string, payload any) {
	e, err := events.NewEnvelope(s.producer, eventType, orderID, payload, s.now())
	if err == nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		err = s.publisher.Publish(pctx, orderID, e)
		cancel()
	}
	if err != nil {
		s.logger.Error("failed to publish order event", "error", err, "event_type", eventType, "order_id", orderID)
	}
}
