package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/events"
	"storefront/internal/repository"
)

type services struct {
	products  *ProductService
	carts     *CartService
	orders    *OrderService
	users     *UserService
	analytics *AnalyticsService
	published *recordingPublisher
	cache     *mapCache
}

func setup(t *testing.T) *services {
	t.Helper()
	store := repository.NewMemoryStore()
	carts := repository.NewMemoryCarts(store)
	orders := repository.NewMemoryOrders(store)
	users := repository.NewMemoryUsers(store)
	tx := repository.NewMemoryTx(store)

	pub := &recordingPublisher{}
	c := &mapCache{data: map[string][]byte{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &services{
		products:  NewProductService(store, c, time.Minute),
		carts:     NewCartService(carts, tx),
		orders:    NewOrderService(orders, carts, store, tx, pub, "storefront-test", logger),
		users:     NewUserService(users, tx, auth.NewTokens("test-secret", time.Hour)),
		analytics: NewAnalyticsService(store, orders, users),
		published: pub,
		cache:     c,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
	fail   error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if ok {
		c.hits++
	}
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}
