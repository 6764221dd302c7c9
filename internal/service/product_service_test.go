package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

func TestProductCRUD(t *testing.T) {
	ctx := context.Background()
	s := setup(t)

	p, err := s.products.Create(ctx, domain.Product{Name: "Headphones", Category: "Electronics", Image: "i", Price: 79.99, Stock: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("id not generated")
	}
	if _, err := s.products.Create(ctx, domain.Product{ID: p.ID, Name: "x", Category: "c"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	price := 59.99
	updated, err := s.products.Update(ctx, p.ID, ProductPatch{Price: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 59.99 || updated.Name != "Headphones" {
		t.Fatalf("patch not merged: %+v", updated)
	}

	if err := s.products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.products.Delete(ctx, p.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProductValidation(t *testing.T) {
	ctx := context.Background()
	s := setup(t)

	_, err := s.products.Create(ctx, domain.Product{Name: "", Category: "", Price: -1, Rating: 6})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %+v", verr.Fields)
	}

	orig := 50.0
	if _, err := s.products.Create(ctx, domain.Product{Name: "A", Category: "c", Price: 60, OriginalPrice: &orig}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("price above originalPrice accepted: %v", err)
	}

	p, _ := s.products.Create(ctx, domain.Product{Name: "A", Category: "c", Price: 40, OriginalPrice: &orig})
	neg := -3
	if _, err := s.products.Update(ctx, p.ID, ProductPatch{Stock: &neg}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("patch must be re-validated, got %v", err)
	}
	got, _ := s.products.GetByID(ctx, p.ID)
	if got.Stock != 0 {
		t.Fatalf("rejected patch was stored")
	}
}

func TestFind_PaginationMetadata(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	for _, price := range []float64{899, 1299, 2999, 4499, 6499} {
		if _, err := s.products.Create(ctx, domain.Product{Name: "Laptop", Category: "Electronics", Price: price}); err != nil {
			t.Fatal(err)
		}
	}

	min, max := 1000.0, 5000.0
	page, err := s.products.Find(ctx, ProductFilter{MinPrice: &min, MaxPrice: &max, Sort: repository.SortPriceLow, Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(page.Products) != 2 || page.Products[0].Price != 1299 || page.Products[1].Price != 2999 {
		t.Fatalf("unexpected products %+v", page.Products)
	}
	if page.Total != 3 || page.Pages != 2 {
		t.Fatalf("total=%d pages=%d", page.Total, page.Pages)
	}

	all, _ := s.products.Find(ctx, ProductFilter{})
	if all.Page != 1 || all.Limit != 20 || all.Pages != 1 || all.Total != 5 {
		t.Fatalf("defaults not applied: %+v", all)
	}

	if _, err := s.products.Find(ctx, ProductFilter{Page: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative page accepted")
	}
	if _, err := s.products.Find(ctx, ProductFilter{Sort: "popular"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown sort accepted")
	}
}

func TestCategories_CachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	_, _ = s.products.Create(ctx, domain.Product{Name: "A", Category: "Books"})

	first, err := s.products.Categories(ctx)
	if err != nil || len(first) != 1 {
		t.Fatalf("categories %v %v", first, err)
	}
	if _, err := s.products.Categories(ctx); err != nil {
		t.Fatal(err)
	}
	if s.cache.hits != 1 {
		t.Fatalf("second read should hit the cache, hits=%d", s.cache.hits)
	}

	_, _ = s.products.Create(ctx, domain.Product{Name: "B", Category: "Sports"})
	cats, _ := s.products.Categories(ctx)
	if len(cats) != 2 {
		t.Fatalf("cache not invalidated on create: %v", cats)
	}
}
