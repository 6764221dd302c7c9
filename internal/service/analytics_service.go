package service

import (
	"context"
	"time"

	"storefront/internal/analytics"
	"storefront/internal/repository"
)

const (
	DefaultReportMonths = 6
	DefaultReportTop    = 5
	recentOrders        = 5
)

// AnalyticsService loads the collections and hands them to the rollups
type AnalyticsService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	now      func() time.Time
}

func NewAnalyticsService(products repository.ProductRepository, orders repository.OrderRepository, users repository.UserRepository) *AnalyticsService {
	return &AnalyticsService{products: products, orders: orders, users: users, now: time.Now}
}

// Report builds the admin dashboard over the last months months, listing top categories and products
func (s *AnalyticsService) Report(ctx context.Context, months, top int) (*analytics.Report, error) {
	var v validator
	v.check(months >= 1 && months <= 36, "months", "must be between 1 and 36")
	v.check(top >= 1 && top <= 100, "top", "must be between 1 and 100")
	if err := v.err(); err != nil {
		return nil, err
	}

	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	products, _, err := s.products.Find(ctx, repository.ProductQuery{Sort: repository.SortName})
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	r := analytics.Summarize(orders, products, users, analytics.Options{
		Months:        months,
		TopCategories: top,
		TopProducts:   top,
		RecentOrders:  recentOrders,
		Now:           s.now(),
	})
	return &r, nil
}
