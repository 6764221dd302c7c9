package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/cache"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// ProductService инкапсулирует бизнес-логику каталога
type ProductService struct {
	repo     repository.ProductRepository
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewProductService builds the catalog service. c may be nil to disable caching.
func NewProductService(repo repository.ProductRepository, c cache.Cache, cacheTTL time.Duration) *ProductService {
	return &ProductService{repo: repo, cache: c, cacheTTL: cacheTTL}
}

// ProductFilter is a catalog query as the client expresses it. Zero Page and
// Limit take the defaults.
type ProductFilter struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Featured bool
	Trending bool
	Sort     repository.ProductSort
	Page     int
	Limit    int
}

type ProductPage struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Pages    int              `json:"pages"`
}

func (s *ProductService) Find(ctx context.Context, f ProductFilter) (*ProductPage, error) {
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Sort == "" {
		f.Sort = repository.SortName
	}
	var v validator
	v.check(f.Page >= 1, "page", "must be a positive integer")
	v.check(f.Limit >= 1, "limit", "must be a positive integer")
	v.check(f.MinPrice == nil || *f.MinPrice >= 0, "minPrice", "must not be negative")
	v.check(f.MaxPrice == nil || *f.MaxPrice >= 0, "maxPrice", "must not be negative")
	v.check(f.Sort.Valid(), "sort", "must be one of name, price-low, price-high, rating, newest")
	if err := v.err(); err != nil {
		return nil, err
	}

	list, total, err := s.repo.Find(ctx, repository.ProductQuery{
		Category: strings.TrimSpace(f.Category),
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Search:   strings.TrimSpace(f.Search),
		Featured: f.Featured,
		Trending: f.Trending,
		Sort:     f.Sort,
		Offset:   (f.Page - 1) * f.Limit,
		Limit:    f.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ProductPage{
		Products: list,
		Total:    total,
		Page:     f.Page,
		Limit:    f.Limit,
		Pages:    int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Create stores a new product; an empty id gets a generated one
func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	cp := p
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &cp, nil
}

// ProductPatch lists the fields an update may touch; nil means unchanged
type ProductPatch struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	Category      *string  `json:"category"`
	Image         *string  `json:"image"`
	InStock       *bool    `json:"inStock"`
	Stock         *int     `json:"stock"`
	Rating        *float64 `json:"rating"`
	Reviews       *int     `json:"reviews"`
	Featured      *bool    `json:"featured"`
	Trending      *bool    `json:"trending"`
}

func (pt ProductPatch) apply(p *domain.Product) {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.OriginalPrice != nil {
		op := *pt.OriginalPrice
		p.OriginalPrice = &op
	}
	if pt.Category != nil {
		p.Category = *pt.Category
	}
	if pt.Image != nil {
		p.Image = *pt.Image
	}
	if pt.InStock != nil {
		p.InStock = *pt.InStock
	}
	if pt.Stock != nil {
		p.Stock = *pt.Stock
	}
	if pt.Rating != nil {
		p.Rating = *pt.Rating
	}
	if pt.Reviews != nil {
		p.Reviews = *pt.Reviews
	}
	if pt.Featured != nil {
		p.Featured = *pt.Featured
	}
	if pt.Trending != nil {
		p.Trending = *pt.Trending
	}
}

// Update merges the patch into the stored product and re-validates the result
func (s *ProductService) Update(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(p)
	if err := validateProduct(*p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Categories lists distinct categories, served from the cache when one is configured
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		var cached []string
		if ok, err := cache.GetJSON(ctx, s.cache, cache.KeyCategories, &cached); err == nil && ok {
			return cached, nil
		}
	}
	cats, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		// a failed write only costs a cache miss
		_ = cache.SetJSON(ctx, s.cache, cache.KeyCategories, cats, s.cacheTTL)
	}
	return cats, nil
}

func (s *ProductService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.KeyCategories)
	}
}

func validateProduct(p domain.Product) error {
	var v validator
	v.check(strings.TrimSpace(p.Name) != "", "name", "is required")
	v.check(strings.TrimSpace(p.Category) != "", "category", "is required")
	v.check(p.Price >= 0, "price", "must not be negative")
	if p.OriginalPrice != nil {
		v.check(*p.OriginalPrice >= 0, "originalPrice", "must not be negative")
		v.check(p.Price <= *p.OriginalPrice, "price", "must not exceed originalPrice")
	}
	v.check(p.Stock >= 0, "stock", "must not be negative")
	v.check(p.Rating >= 0 && p.Rating <= 5, "rating", "must be between 0 and 5")
	v.check(p.Reviews >= 0, "reviews", "must not be negative")
	return v.err()
}
