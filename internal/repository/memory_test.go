package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"storefront/internal/domain"
)

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{ID: "p1", Name: "A", Description: "d", Category: "c", Image: "i", Price: 10, Stock: 5}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}
	if err := store.Create(ctx, &p); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate id, got %v", err)
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}

	p.Price = 12
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.GetByID(ctx, p.ID)
	if got.Price != 12 {
		t.Fatalf("update not stored")
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found")
	}
	if err := store.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete")
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	op := 20.0
	p := domain.Product{ID: "p1", Name: "A", Price: 10, OriginalPrice: &op}
	_ = store.Create(ctx, &p)

	got, _ := store.GetByID(ctx, "p1")
	got.Name = "changed"
	*got.OriginalPrice = 1

	again, _ := store.GetByID(ctx, "p1")
	if again.Name != "A" || *again.OriginalPrice != 20 {
		t.Fatalf("stored product mutated through returned pointer: %+v", again)
	}
}

func seedPrices(t *testing.T, store *MemoryStore, prices ...float64) {
	t.Helper()
	ctx := context.Background()
	for i, price := range prices {
		p := domain.Product{
			ID:       fmt.Sprintf("p%02d", i),
			Name:     fmt.Sprintf("Product %02d", i),
			Category: "Electronics",
			Price:    price,
		}
		if err := store.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFind_PriceRangeSortedAndPaged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedPrices(t, store, 899, 1299, 2999, 4499, 6499)

	min, max := 1000.0, 5000.0
	page, total, err := store.Find(ctx, ProductQuery{MinPrice: &min, MaxPrice: &max, Sort: SortPriceLow, Offset: 0, Limit: 2})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 matches in range, got %d", total)
	}
	if len(page) != 2 || page[0].Price != 1299 || page[1].Price != 2999 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestFind_Filters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	add := func(p domain.Product) {
		if err := store.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	add(domain.Product{ID: "1", Name: "Wireless Headphones", Description: "noise cancelling", Category: "Electronics", Price: 79.99, Featured: true})
	add(domain.Product{ID: "2", Name: "Coffee Maker", Description: "brews coffee", Category: "Home & Kitchen", Price: 149.99, Trending: true})
	add(domain.Product{ID: "3", Name: "Office Chair", Description: "ergonomic, wireless free", Category: "Furniture", Price: 299.99, Featured: true, Trending: true})

	list, total, _ := store.Find(ctx, ProductQuery{Category: "kitchen"})
	if total != 1 || list[0].ID != "2" {
		t.Fatalf("category filter: %+v", list)
	}

	list, total, _ = store.Find(ctx, ProductQuery{Search: "WIRELESS"})
	if total != 2 {
		t.Fatalf("search should hit name or description, got %d", total)
	}

	_, total, _ = store.Find(ctx, ProductQuery{Featured: true})
	if total != 2 {
		t.Fatalf("featured filter: %d", total)
	}
	list, total, _ = store.Find(ctx, ProductQuery{Featured: true, Trending: true})
	if total != 1 || list[0].ID != "3" {
		t.Fatalf("featured+trending filter: %+v", list)
	}
}

func TestFind_Sorting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []domain.Product{
		{ID: "a", Name: "Banana", Price: 3, Rating: 4.1},
		{ID: "b", Name: "Apple", Price: 5, Rating: 4.9},
		{ID: "c", Name: "Cherry", Price: 1, Rating: 3.0},
	} {
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := store.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	ids := func(s ProductSort) string {
		list, _, _ := store.Find(ctx, ProductQuery{Sort: s})
		out := ""
		for _, p := range list {
			out += p.ID
		}
		return out
	}
	cases := map[ProductSort]string{
		"":            "bac",
		SortName:      "bac",
		SortPriceLow:  "cab",
		SortPriceHigh: "bac",
		SortRating:    "bac",
		SortNewest:    "cba",
	}
	for s, want := range cases {
		if got := ids(s); got != want {
			t.Fatalf("sort %q: got %s, want %s", s, got, want)
		}
	}
}

func TestFind_PagesCoverFilteredSet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	// repeated prices force the id tie-break
	seedPrices(t, store, 5, 1, 5, 3, 5, 1, 2, 9, 5, 3, 7, 5, 4)

	min := 2.0
	_, total, _ := store.Find(ctx, ProductQuery{MinPrice: &min})
	for _, limit := range []int{1, 2, 3, 4, 5, 20} {
		pages := int(math.Ceil(float64(total) / float64(limit)))
		seen := make(map[string]bool)
		for page := 1; page <= pages; page++ {
			list, _, _ := store.Find(ctx, ProductQuery{MinPrice: &min, Sort: SortPriceLow, Offset: (page - 1) * limit, Limit: limit})
			for _, p := range list {
				if seen[p.ID] {
					t.Fatalf("limit %d: %s appears twice", limit, p.ID)
				}
				seen[p.ID] = true
			}
		}
		if len(seen) != total {
			t.Fatalf("limit %d: pages covered %d of %d", limit, len(seen), total)
		}
	}
}

func TestMemoryStore_Categories(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for i, c := range []string{"Sports", "Electronics", "Sports", "Books"} {
		p := domain.Product{ID: fmt.Sprint(i), Name: "n", Category: c}
		_ = store.Create(ctx, &p)
	}
	cats, _ := store.Categories(ctx)
	if fmt.Sprint(cats) != "[Books Electronics Sports]" {
		t.Fatalf("unexpected categories %v", cats)
	}
}

func TestMemoryCarts_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	carts := NewMemoryCarts(NewMemoryStore())
	if _, err := carts.GetByUser(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	c := domain.NewCart("u1", time.Now())
	c.AddItem(domain.ProductSnapshot{ID: "1", Name: "H", Price: 10, Image: "i", Category: "c"}, 2, time.Now())
	if err := carts.Save(ctx, c); err != nil {
		t.Fatal(err)
	}
	c.Items[0].Quantity = 50

	got, err := carts.GetByUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Items[0].Quantity != 2 || got.TotalPrice != 20 {
		t.Fatalf("stored cart aliased caller: %+v", got)
	}
}

func TestMemoryOrders_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	orders := NewMemoryOrders(NewMemoryStore())
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, uid := range []string{"u1", "u2", "u1"} {
		o := domain.Order{ID: fmt.Sprintf("o%d", i), UserID: uid, OrderDate: base.AddDate(0, 0, i), Status: domain.OrderStatusPending}
		if err := orders.Create(ctx, &o); err != nil {
			t.Fatal(err)
		}
	}
	mine, _ := orders.ListByUser(ctx, "u1")
	if len(mine) != 2 || mine[0].ID != "o2" || mine[1].ID != "o0" {
		t.Fatalf("unexpected user orders %+v", mine)
	}
	all, _ := orders.List(ctx)
	if len(all) != 3 || all[0].ID != "o2" {
		t.Fatalf("unexpected order list %+v", all)
	}
	o := domain.Order{ID: "missing"}
	if err := orders.Update(ctx, &o); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUsers(NewMemoryStore())
	u := domain.User{ID: "u1", Name: "John", Email: " John@Example.com ", Role: domain.RoleUser}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatal(err)
	}
	if u.Email != "john@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	dup := domain.User{ID: "u2", Name: "Other", Email: "JOHN@example.com"}
	if err := users.Create(ctx, &dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, err := users.GetByEmail(ctx, "john@EXAMPLE.com")
	if err != nil || got.ID != "u1" {
		t.Fatalf("lookup by email: %v", err)
	}
	if err := users.Delete(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := users.Create(ctx, &dup); err != nil {
		t.Fatalf("email should be free after delete: %v", err)
	}
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	carts := NewMemoryCarts(store)
	orders := NewMemoryOrders(store)

	c := domain.NewCart("u1", time.Now())
	c.AddItem(domain.ProductSnapshot{ID: "1", Name: "H", Price: 10, Image: "i", Category: "c"}, 3, time.Now())
	if err := carts.Save(ctx, c); err != nil {
		t.Fatal(err)
	}

	// checkout: snapshot the cart into an order and empty it
	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := carts.GetByUser(ctx, "u1")
		if err != nil {
			return err
		}
		items := domain.ItemsFromCart(*cart)
		o := domain.Order{ID: "o1", UserID: "u1", Items: items, Total: domain.OrderTotal(items), Status: domain.OrderStatusPending}
		if err := orders.Create(ctx, &o); err != nil {
			return err
		}
		cart.Clear(time.Now())
		// nested transactions must not deadlock
		return tx.WithTransaction(ctx, func(ctx context.Context) error {
			return carts.Save(ctx, cart)
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	cart, _ := carts.GetByUser(context.Background(), "u1")
	o, _ := orders.GetByID(context.Background(), "o1")
	if cart.TotalItems != 0 || o.Total != 30 {
		t.Fatalf("unexpected state cart=%+v order=%+v", cart, o)
	}
}
