package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CartService управляет корзиной пользователя; каждая операция выполняется в транзакции
type CartService struct {
	carts repository.CartRepository
	tx    repository.TxManager
	now   func() time.Time
}

func NewCartService(carts repository.CartRepository, tx repository.TxManager) *CartService {
	return &CartService{carts: carts, tx: tx, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the user's cart, creating an empty one on first access
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	var out *domain.Cart
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.loadOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *CartService) AddItem(ctx context.Context, userID string, p domain.ProductSnapshot, qty int) (*domain.Cart, error) {
	var v validator
	v.check(userID != "", "userId", "is required")
	v.check(strings.TrimSpace(p.ID) != "", "product.id", "Product ID is required")
	v.check(strings.TrimSpace(p.Name) != "", "product.name", "Product name is required")
	v.check(p.Price >= 0, "product.price", "Product price must not be negative")
	v.check(strings.TrimSpace(p.Image) != "", "product.image", "Product image is required")
	v.check(strings.TrimSpace(p.Category) != "", "product.category", "Product category is required")
	v.check(qty >= 1, "quantity", "Quantity must be a positive integer")
	if err := v.err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, true, func(c *domain.Cart, now time.Time) {
		c.AddItem(p, qty, now)
	})
}

// UpdateQuantity sets a line's quantity; zero removes the line
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*domain.Cart, error) {
	var v validator
	v.check(userID != "", "userId", "is required")
	v.check(strings.TrimSpace(productID) != "", "productId", "Product ID is required")
	v.check(qty >= 0, "quantity", "Quantity must be a non-negative integer")
	if err := v.err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, false, func(c *domain.Cart, now time.Time) {
		c.SetQuantity(productID, qty, now)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" || strings.TrimSpace(productID) == "" {
		return nil, ErrInvalidInput
	}
	return s.mutate(ctx, userID, false, func(c *domain.Cart, now time.Time) {
		c.RemoveItem(productID, now)
	})
}

func (s *CartService) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.mutate(ctx, userID, false, func(c *domain.Cart, now time.Time) {
		c.Clear(now)
	})
}

// Sync merges client-held lines into the stored cart, keeping the larger quantity
func (s *CartService) Sync(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	var v validator
	v.check(userID != "", "userId", "is required")
	for i, it := range items {
		v.check(strings.TrimSpace(it.ProductID) != "", fmt.Sprintf("items[%d].productId", i), "Product ID is required")
		v.check(it.Quantity >= 1, fmt.Sprintf("items[%d].quantity", i), "Quantity must be a positive integer")
		v.check(it.Price >= 0, fmt.Sprintf("items[%d].price", i), "Price must not be negative")
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, true, func(c *domain.Cart, now time.Time) {
		c.Merge(items, now)
	})
}

// mutate loads the cart, applies fn and saves it in one transaction.
// Without create a missing cart is ErrNotFound.
func (s *CartService) mutate(ctx context.Context, userID string, create bool, fn func(c *domain.Cart, now time.Time)) (*domain.Cart, error) {
	var out *domain.Cart
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var (
			c   *domain.Cart
			err error
		)
		if create {
			c, err = s.loadOrCreate(ctx, userID)
		} else {
			c, err = s.carts.GetByUser(ctx, userID)
		}
		if err != nil {
			return err
		}
		fn(c, s.now())
		if err := s.carts.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CartService) loadOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	c = domain.NewCart(userID, s.now())
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
