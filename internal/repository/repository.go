package repository

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
)

var (
	// ErrNotFound is returned when an entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken
	ErrConflict = errors.New("already exists")
)

// ProductSort selects the catalog ordering
type ProductSort string

const (
	SortName      ProductSort = "name"
	SortPriceLow  ProductSort = "price-low"
	SortPriceHigh ProductSort = "price-high"
	SortRating    ProductSort = "rating"
	SortNewest    ProductSort = "newest"
)

func (s ProductSort) Valid() bool {
	switch s {
	case SortName, SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return true
	}
	return false
}

// ProductQuery filters, orders and pages the catalog.
// Offset and Limit are already resolved by the caller; Limit <= 0 means no limit.
type ProductQuery struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Featured bool
	Trending bool
	Sort     ProductSort
	Offset   int
	Limit    int
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
	// Find returns one page of matching products and the number of matches before paging
	Find(ctx context.Context, q ProductQuery) ([]domain.Product, int, error)
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

type CartRepository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.User, error)
}

// TxManager runs fn so that every repository call made with the ctx it receives
// commits or fails together.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NormalizeEmail is the form emails are stored and looked up in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
