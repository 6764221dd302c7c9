package repository

import (
	"sort"

	"storefront/internal/domain"
)

func matches(p domain.Product, q ProductQuery) bool {
	if !containsIgnoreCase(p.Category, q.Category) {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if q.Search != "" && !containsIgnoreCase(p.Name, q.Search) && !containsIgnoreCase(p.Description, q.Search) {
		return false
	}
	if q.Featured && !p.Featured {
		return false
	}
	if q.Trending && !p.Trending {
		return false
	}
	return true
}

// less orders two products by the requested key, falling back to id so every
// ordering is total and pages never overlap
func less(a, b domain.Product, by ProductSort) bool {
	switch by {
	case SortPriceLow:
		if a.Price != b.Price {
			return a.Price < b.Price
		}
	case SortPriceHigh:
		if a.Price != b.Price {
			return a.Price > b.Price
		}
	case SortRating:
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
	case SortNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	}
	return a.ID < b.ID
}

// applyQuery filters, sorts and pages an in-memory product set
func applyQuery(all []domain.Product, q ProductQuery) ([]domain.Product, int) {
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if matches(p, q) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j], q.Sort) })

	total := len(out)
	if q.Offset >= total {
		return []domain.Product{}, total
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < total {
		end = q.Offset + q.Limit
	}
	return out[q.Offset:end], total
}
