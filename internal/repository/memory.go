package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"
)

// MemoryStore is the in-memory backing for every repository. Entities are
// stored by value and copied on the way in and out.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	carts      map[string]domain.Cart
	orders     map[string]domain.Order
	users      map[string]domain.User
	emailIndex map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:   make(map[string]domain.Product),
		carts:      make(map[string]domain.Cart),
		orders:     make(map[string]domain.Order),
		users:      make(map[string]domain.User),
		emailIndex: make(map[string]string),
	}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// Ensure interfaces
var (
	_ ProductRepository = (*MemoryStore)(nil)
	_ CartRepository    = (*MemoryCarts)(nil)
	_ OrderRepository   = (*MemoryOrders)(nil)
	_ UserRepository    = (*MemoryUsers)(nil)
	_ TxManager         = (*MemoryTx)(nil)
)

// ProductRepository implementation
func (m *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.products[p.ID]; ok {
		return ErrConflict
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.products[p.ID] = copyProduct(*p)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyProduct(p)
	return &cp, nil
}

func (m *MemoryStore) Update(ctx context.Context, p *domain.Product) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	old, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.products[p.ID] = copyProduct(*p)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.wlock(ctx)
	defer m.wunlock(ctx)
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) Find(ctx context.Context, q ProductQuery) ([]domain.Product, int, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	all := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		all = append(all, copyProduct(p))
	}
	page, total := applyQuery(all, q)
	return page, total, nil
}

func (m *MemoryStore) Categories(ctx context.Context) ([]string, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range m.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.rlock(ctx)
	defer m.runlock(ctx)
	return len(m.products), nil
}

func copyProduct(p domain.Product) domain.Product {
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		p.OriginalPrice = &op
	}
	return p
}

// CartRepository implementation on wrapper type
type MemoryCarts struct{ store *MemoryStore }

func NewMemoryCarts(store *MemoryStore) *MemoryCarts { return &MemoryCarts{store: store} }

func (mc *MemoryCarts) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	mc.store.rlock(ctx)
	defer mc.store.runlock(ctx)
	c, ok := mc.store.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c.Clone()
	return &cp, nil
}

func (mc *MemoryCarts) Save(ctx context.Context, c *domain.Cart) error {
	mc.store.wlock(ctx)
	defer mc.store.wunlock(ctx)
	mc.store.carts[c.UserID] = c.Clone()
	return nil
}

// OrderRepository implementation on wrapper type
type MemoryOrders struct{ store *MemoryStore }

func NewMemoryOrders(store *MemoryStore) *MemoryOrders { return &MemoryOrders{store: store} }

func (mo *MemoryOrders) Create(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.orders[o.ID]; ok {
		return ErrConflict
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	o.UpdatedAt = o.OrderDate
	mo.store.orders[o.ID] = o.Clone()
	return nil
}

func (mo *MemoryOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	o, ok := mo.store.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o.Clone()
	return &cp, nil
}

func (mo *MemoryOrders) Update(ctx context.Context, o *domain.Order) error {
	mo.store.wlock(ctx)
	defer mo.store.wunlock(ctx)
	if _, ok := mo.store.orders[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now().UTC()
	mo.store.orders[o.ID] = o.Clone()
	return nil
}

func (mo *MemoryOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0)
	for _, o := range mo.store.orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (mo *MemoryOrders) List(ctx context.Context) ([]domain.Order, error) {
	mo.store.rlock(ctx)
	defer mo.store.runlock(ctx)
	out := make([]domain.Order, 0, len(mo.store.orders))
	for _, o := range mo.store.orders {
		out = append(out, o.Clone())
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
}

// UserRepository implementation on wrapper type
type MemoryUsers struct{ store *MemoryStore }

func NewMemoryUsers(store *MemoryStore) *MemoryUsers { return &MemoryUsers{store: store} }

func (mu *MemoryUsers) Create(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	email := NormalizeEmail(u.Email)
	if _, ok := mu.store.emailIndex[email]; ok {
		return ErrConflict
	}
	if _, ok := mu.store.users[u.ID]; ok {
		return ErrConflict
	}
	u.Email = email
	if u.JoinedDate.IsZero() {
		u.JoinedDate = time.Now().UTC()
	}
	mu.store.users[u.ID] = copyUser(*u)
	mu.store.emailIndex[email] = u.ID
	return nil
}

func (mu *MemoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	u, ok := mu.store.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyUser(u)
	return &cp, nil
}

func (mu *MemoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	id, ok := mu.store.emailIndex[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyUser(mu.store.users[id])
	return &cp, nil
}

func (mu *MemoryUsers) Update(ctx context.Context, u *domain.User) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	old, ok := mu.store.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	email := NormalizeEmail(u.Email)
	if owner, taken := mu.store.emailIndex[email]; taken && owner != u.ID {
		return ErrConflict
	}
	delete(mu.store.emailIndex, old.Email)
	u.Email = email
	mu.store.users[u.ID] = copyUser(*u)
	mu.store.emailIndex[email] = u.ID
	return nil
}

func (mu *MemoryUsers) Delete(ctx context.Context, id string) error {
	mu.store.wlock(ctx)
	defer mu.store.wunlock(ctx)
	u, ok := mu.store.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(mu.store.emailIndex, u.Email)
	delete(mu.store.users, id)
	return nil
}

func (mu *MemoryUsers) List(ctx context.Context) ([]domain.User, error) {
	mu.store.rlock(ctx)
	defer mu.store.runlock(ctx)
	out := make([]domain.User, 0, len(mu.store.users))
	for _, u := range mu.store.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedDate.Equal(out[j].JoinedDate) {
			return out[i].JoinedDate.Before(out[j].JoinedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func copyUser(u domain.User) domain.User {
	if u.Address != nil {
		a := *u.Address
		u.Address = &a
	}
	return u
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// nested calls reuse the held lock
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
