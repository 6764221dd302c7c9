package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"
)

var checkout = Checkout{
	ShippingAddress: domain.ShippingAddress{Name: "John Doe", Address: "123 Main St", City: "New York", State: "NY", ZipCode: "10001", Phone: "555"},
	PaymentMethod:   "Credit Card",
}

func TestCreateOrder_SnapshotAndTotal(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	p, _ := s.products.Create(ctx, domain.Product{Name: "Headphones", Category: "Electronics", Price: 79.99})

	o, err := s.orders.Create(ctx, "u1", []domain.OrderItem{
		{ProductID: p.ID, ProductName: "Headphones", Quantity: 2, Price: 79.99, Image: "i"},
		{ProductID: "gone", ProductName: "Old", Quantity: 1, Price: 5},
	}, checkout)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.Status != domain.OrderStatusPending || o.Total != 79.99*2+5 {
		t.Fatalf("unexpected order %+v", o)
	}
	if o.EstimatedDelivery == nil || o.EstimatedDelivery.Sub(o.OrderDate) != 7*24*time.Hour {
		t.Fatalf("estimated delivery %v", o.EstimatedDelivery)
	}
	if o.Items[0].Category != "Electronics" {
		t.Fatalf("category not captured: %+v", o.Items[0])
	}

	// editing the product must not touch the order
	name, price := "Headphones Pro", 199.0
	if _, err := s.products.Update(ctx, p.ID, ProductPatch{Name: &name, Price: &price}); err != nil {
		t.Fatal(err)
	}
	stored, _ := s.orders.GetByID(ctx, o.ID)
	if stored.Items[0].ProductName != "Headphones" || stored.Items[0].Price != 79.99 || stored.Total != o.Total {
		t.Fatalf("order changed with catalog: %+v", stored)
	}

	if got := s.published.types(); len(got) != 1 || got[0] != events.EventOrderCreated {
		t.Fatalf("published %v", got)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	_, err := s.orders.Create(ctx, "u1", nil, Checkout{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 6 {
		t.Fatalf("unexpected fields %+v", verr.Fields)
	}
}

func TestCheckout_FromCart(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	if _, err := s.orders.Checkout(ctx, "u1", checkout); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("checkout without cart: %v", err)
	}

	_, _ = s.carts.AddItem(ctx, "u1", headphones, 3)
	o, err := s.orders.Checkout(ctx, "u1", checkout)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.Total != 30 || len(o.Items) != 1 || o.Items[0].Category != "c" || o.Items[0].ProductName != "H" {
		t.Fatalf("unexpected order %+v", o)
	}
	c, _ := s.carts.Get(ctx, "u1")
	if c.TotalItems != 0 {
		t.Fatalf("cart not cleared: %+v", c)
	}
	if _, err := s.orders.Checkout(ctx, "u1", checkout); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("checkout of empty cart: %v", err)
	}
}

func TestUpdateStatus_ForwardChain(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	o, _ := s.orders.Create(ctx, "u1", []domain.OrderItem{{ProductID: "1", ProductName: "H", Quantity: 1, Price: 10}}, checkout)

	for _, st := range []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		got, changed, err := s.orders.UpdateStatus(ctx, o.ID, st)
		if err != nil {
			t.Fatalf("-> %s: %v", st, err)
		}
		if !changed || got.Status != st {
			t.Fatalf("status %s, want %s", got.Status, st)
		}
	}

	if _, _, err := s.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delivered -> pending: %v", err)
	}
	if _, _, err := s.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delivered -> cancelled: %v", err)
	}
	if _, _, err := s.orders.UpdateStatus(ctx, o.ID, "lost"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status: %v", err)
	}
	if _, _, err := s.orders.UpdateStatus(ctx, "missing", domain.OrderStatusShipped); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing order: %v", err)
	}

	got, changed, err := s.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusDelivered)
	if err != nil || changed || got.Status != domain.OrderStatusDelivered {
		t.Fatalf("re-asserting delivered: %+v changed=%v %v", got, changed, err)
	}

	// created + three transitions, the no-op publishes nothing
	if got := len(s.published.types()); got != 4 {
		t.Fatalf("published %d events", got)
	}
}

func TestCancel_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	o, _ := s.orders.Create(ctx, "u1", []domain.OrderItem{{ProductID: "1", ProductName: "H", Quantity: 1, Price: 10}}, checkout)

	if _, _, err := s.orders.Cancel(ctx, "u2", o.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign cancel: %v", err)
	}
	got, changed, err := s.orders.Cancel(ctx, "u1", o.ID)
	if err != nil || !changed || got.Status != domain.OrderStatusCancelled {
		t.Fatalf("cancel: %+v %v", got, err)
	}
	if _, _, err := s.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusProcessing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled is terminal: %v", err)
	}
}

func TestOrders_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	s.published.fail = errors.New("broker down")
	o, err := s.orders.Create(ctx, "u1", []domain.OrderItem{{ProductID: "1", ProductName: "H", Quantity: 1, Price: 10}}, checkout)
	if err != nil {
		t.Fatalf("create must succeed when publishing fails: %v", err)
	}
	if _, err := s.orders.GetByID(ctx, o.ID); err != nil {
		t.Fatalf("order not stored: %v", err)
	}
}

func TestOrders_Listing(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	item := []domain.OrderItem{{ProductID: "1", ProductName: "H", Quantity: 1, Price: 10}}
	a, _ := s.orders.Create(ctx, "u1", item, checkout)
	_, _ = s.orders.Create(ctx, "u2", item, checkout)

	mine, _ := s.orders.ListByUser(ctx, "u1")
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("own orders %+v", mine)
	}
	all, _ := s.orders.List(ctx)
	if len(all) != 2 {
		t.Fatalf("all orders %d", len(all))
	}
	if _, err := s.orders.GetForUser(ctx, "u2", a.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign read: %v", err)
	}
}

// stallingPublisher blocks until the publish context is done
type stallingPublisher struct {
	hadDeadline bool
}

func (p *stallingPublisher) Publish(ctx context.Context, _ string, _ events.Envelope) error {
	_, p.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func (p *stallingPublisher) Close() error { return nil }

func TestOrders_SlowBrokerIsCutOff(t *testing.T) {
	s := setup(t)
	pub := &stallingPublisher{}
	s.orders.publisher = pub
	s.orders.publishTimeout = 20 * time.Millisecond

	// a cancelled request context must not skip the publish attempt
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	o, err := s.orders.Create(ctx, "u1", []domain.OrderItem{{ProductID: "1", ProductName: "H", Quantity: 1, Price: 10}}, checkout)
	if err != nil {
		t.Fatalf("create must succeed when the broker stalls: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("publish not bounded, took %v", elapsed)
	}
	if !pub.hadDeadline {
		t.Fatalf("publish context has no deadline")
	}
	if _, err := s.orders.GetByID(context.Background(), o.ID); err != nil {
		t.Fatalf("order not stored: %v", err)
	}
}
