// Package analytics holds the admin rollups. Every function is pure and works
// on collections the caller has already loaded.
package analytics

import (
	"sort"
	"time"

	"storefront/internal/domain"
)

const uncategorized = "Uncategorized"

type MonthRevenue struct {
	Month   string  `json:"month"` // YYYY-MM
	Label   string  `json:"label"` // Jan 2025
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type CategorySales struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
}

type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Image     string  `json:"image"`
	TotalSold int     `json:"totalSold"`
	Revenue   float64 `json:"revenue"`
}

func TotalRevenue(orders []domain.Order) float64 {
	total := 0.0
	for _, o := range orders {
		total += o.Total
	}
	return total
}

// AverageOrderValue is 0 when there are no orders
func AverageOrderValue(orders []domain.Order) float64 {
	if len(orders) == 0 {
		return 0
	}
	return TotalRevenue(orders) / float64(len(orders))
}

// OrdersByStatus counts orders per status; every known status is present
func OrdersByStatus(orders []domain.Order) map[domain.OrderStatus]int {
	out := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		out[s] = 0
	}
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

// MonthlyRevenue returns exactly n buckets, oldest first, the last one being
// the month of now. Orders are bucketed by their UTC order date.
func MonthlyRevenue(orders []domain.Order, n int, now time.Time) []MonthRevenue {
	if n <= 0 {
		return []MonthRevenue{}
	}
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)

	out := make([]MonthRevenue, n)
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, i, 0)
		key := m.Format("2006-01")
		out[i] = MonthRevenue{Month: key, Label: m.Format("Jan 2006")}
		index[key] = i
	}
	for _, o := range orders {
		i, ok := index[o.OrderDate.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		out[i].Revenue += o.Total
		out[i].Orders++
	}
	return out
}

// CategoryRevenue sums price × quantity per category, highest first. A line
// is attributed to the category captured on the order; lines without one
// fall back to the product's current category. Catalog categories without
// sales are listed with zero revenue.
func CategoryRevenue(orders []domain.Order, products []domain.Product) []CategorySales {
	current := make(map[string]string, len(products))
	sums := make(map[string]float64)
	for _, p := range products {
		current[p.ID] = p.Category
		if _, ok := sums[p.Category]; !ok {
			sums[p.Category] = 0
		}
	}
	for _, o := range orders {
		for _, it := range o.Items {
			cat := it.Category
			if cat == "" {
				cat = current[it.ProductID]
			}
			if cat == "" {
				cat = uncategorized
			}
			sums[cat] += it.Price * float64(it.Quantity)
		}
	}

	out := make([]CategorySales, 0, len(sums))
	for c, r := range sums {
		out = append(out, CategorySales{Category: c, Revenue: r})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopProducts ranks catalog products by quantity sold. Ties keep catalog order.
// n <= 0 returns every product.
func TopProducts(orders []domain.Order, products []domain.Product, n int) []ProductSales {
	sold := make(map[string]int)
	revenue := make(map[string]float64)
	for _, o := range orders {
		for _, it := range o.Items {
			sold[it.ProductID] += it.Quantity
			revenue[it.ProductID] += it.Price * float64(it.Quantity)
		}
	}

	out := make([]ProductSales, 0, len(products))
	for _, p := range products {
		out = append(out, ProductSales{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Image:     p.Image,
			TotalSold: sold[p.ID],
			Revenue:   revenue[p.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSold > out[j].TotalSold })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Options controls the size of the dashboard sections
type Options struct {
	Months        int
	TopCategories int
	TopProducts   int
	RecentOrders  int
	Now           time.Time
}

type Report struct {
	TotalRevenue      float64                    `json:"totalRevenue"`
	TotalOrders       int                        `json:"totalOrders"`
	TotalProducts     int                        `json:"totalProducts"`
	TotalCustomers    int                        `json:"totalCustomers"`
	AverageOrderValue float64                    `json:"averageOrderValue"`
	OrdersByStatus    map[domain.OrderStatus]int `json:"ordersByStatus"`
	MonthlyRevenue    []MonthRevenue             `json:"monthlyRevenue"`
	TopCategories     []CategorySales            `json:"topCategories"`
	TopProducts       []ProductSales             `json:"topProducts"`
	RecentOrders      []domain.Order             `json:"recentOrders"`
}

// Summarize builds the admin dashboard. Orders are expected newest first.
func Summarize(orders []domain.Order, products []domain.Product, users []domain.User, opts Options) Report {
	customers := 0
	for _, u := range users {
		if u.Role == domain.RoleUser {
			customers++
		}
	}

	categories := CategoryRevenue(orders, products)
	if opts.TopCategories > 0 && len(categories) > opts.TopCategories {
		categories = categories[:opts.TopCategories]
	}

	recent := orders
	if opts.RecentOrders >= 0 && len(recent) > opts.RecentOrders {
		recent = recent[:opts.RecentOrders]
	}

	return Report{
		TotalRevenue:      TotalRevenue(orders),
		TotalOrders:       len(orders),
		TotalProducts:     len(products),
		TotalCustomers:    customers,
		AverageOrderValue: AverageOrderValue(orders),
		OrdersByStatus:    OrdersByStatus(orders),
		MonthlyRevenue:    MonthlyRevenue(orders, opts.Months, opts.Now),
		TopCategories:     categories,
		TopProducts:       TopProducts(orders, products, opts.TopProducts),
		RecentOrders:      append([]domain.Order{}, recent...),
	}
}
