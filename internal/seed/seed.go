// Package seed loads the demo catalog and the admin account at startup.
package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/service"
)

func price(v float64) *float64 { return &v }

const img = "https://images.unsplash.com/"

// Products is the demo catalog
var Products = []domain.Product{
	{ID: "1", Name: "Wireless Bluetooth Headphones", Description: "Premium quality wireless headphones with noise cancellation and long battery life",
		Price: 79.99, OriginalPrice: price(99.99), Category: "Electronics", Image: img + "photo-1505740420928-5e560c06d30e?w=400",
		InStock: true, Stock: 25, Rating: 4.5, Reviews: 128, Featured: true},
	{ID: "2", Name: "Smart Fitness Watch", Description: "Track your fitness goals with this advanced smartwatch featuring heart rate monitoring",
		Price: 199.99, OriginalPrice: price(249.99), Category: "Electronics", Image: img + "photo-1523275335684-37898b6baf30?w=400",
		InStock: true, Stock: 15, Rating: 4.3, Reviews: 89, Featured: true, Trending: true},
	{ID: "3", Name: "Premium Coffee Maker", Description: "Brew the perfect cup of coffee every morning with this professional-grade coffee maker",
		Price: 149.99, Category: "Home & Kitchen", Image: img + "photo-1495474472287-4d71bcdd2085?w=400",
		InStock: true, Stock: 8, Rating: 4.7, Reviews: 156, Trending: true},
	{ID: "4", Name: "Ergonomic Office Chair", Description: "Comfortable and supportive office chair designed for long hours of work",
		Price: 299.99, OriginalPrice: price(399.99), Category: "Furniture", Image: img + "photo-1586023492125-27b2c045efd7?w=400",
		InStock: true, Stock: 12, Rating: 4.4, Reviews: 73, Featured: true},
	{ID: "5", Name: "Organic Cotton T-Shirt", Description: "Soft and comfortable organic cotton t-shirt available in multiple colors",
		Price: 24.99, OriginalPrice: price(34.99), Category: "Clothing", Image: img + "photo-1521572163474-6864f9cf17ab?w=400",
		InStock: true, Stock: 50, Rating: 4.2, Reviews: 94, Trending: true},
	{ID: "6", Name: "Stainless Steel Water Bottle", Description: "Insulated stainless steel water bottle that keeps drinks cold for 24 hours",
		Price: 19.99, Category: "Sports & Outdoors", Image: img + "photo-1602143407151-7111542de6e8?w=400",
		InStock: true, Stock: 35, Rating: 4.6, Reviews: 112, Featured: true},
	{ID: "7", Name: "LED Desk Lamp", Description: "Adjustable LED desk lamp with multiple brightness levels and USB charging port",
		Price: 39.99, OriginalPrice: price(59.99), Category: "Home & Garden", Image: img + "photo-1507473885765-e6ed057f782c?w=400",
		InStock: true, Stock: 22, Rating: 4.1, Reviews: 67, Trending: true},
	{ID: "8", Name: "Wireless Charging Pad", Description: "Fast wireless charging pad compatible with all Qi-enabled devices",
		Price: 29.99, Category: "Electronics", Image: img + "photo-1609091839311-d5365f9ff1c5?w=400",
		Stock: 0, Rating: 4.3, Reviews: 45},
	{ID: "9", Name: "Yoga Mat with Carrying Strap", Description: "Non-slip yoga mat made from eco-friendly materials with free carrying strap",
		Price: 34.99, Category: "Sports & Outdoors", Image: img + "photo-1544367567-0f2fcb009e0b?w=400",
		InStock: true, Stock: 18, Rating: 4.5, Reviews: 89, Featured: true, Trending: true},
	{ID: "10", Name: "Bluetooth Portable Speaker", Description: "Compact waterproof Bluetooth speaker with impressive sound quality",
		Price: 49.99, OriginalPrice: price(69.99), Category: "Electronics", Image: img + "photo-1608043152269-423dbba4e7e1?w=400",
		InStock: true, Stock: 30, Rating: 4.4, Reviews: 156, Featured: true},
}

// Catalog inserts the demo products into an empty catalog and reports how many were added
func Catalog(ctx context.Context, products *service.ProductService) (int, error) {
	n, err := products.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for _, p := range Products {
		if _, err := products.Create(ctx, p); err != nil {
			return 0, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return len(Products), nil
}
