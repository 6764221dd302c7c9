package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront/internal/domain"
)

// Connect opens a small pool and checks the database is reachable
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// querier is satisfied by both the pool and an open transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgTxKey struct{}

// PostgresStore is the SQL backing for every repository
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// conn returns the transaction bound to ctx, if any, else the pool
func (s *PostgresStore) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

var (
	_ ProductRepository = (*PostgresStore)(nil)
	_ CartRepository    = (*PostgresCarts)(nil)
	_ OrderRepository   = (*PostgresOrders)(nil)
	_ UserRepository    = (*PostgresUsers)(nil)
	_ TxManager         = (*PostgresTx)(nil)
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const productColumns = `id, name, description, price, original_price, category, image,
	in_stock, stock, rating, reviews, featured, trending, created_at, updated_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Category, &p.Image,
		&p.InStock, &p.Stock, &p.Rating, &p.Reviews, &p.Featured, &p.Trending, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) Create(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Category, p.Image,
		p.InStock, p.Stock, p.Rating, p.Reviews, p.Featured, p.Trending, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.conn(ctx).QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()
	err := s.conn(ctx).QueryRow(ctx, `
		UPDATE products SET name = $2, description = $3, price = $4, original_price = $5, category = $6,
			image = $7, in_stock = $8, stock = $9, rating = $10, reviews = $11, featured = $12,
			trending = $13, updated_at = $14
		WHERE id = $1
		RETURNING created_at
	`, p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Category, p.Image,
		p.InStock, p.Stock, p.Rating, p.Reviews, p.Featured, p.Trending, p.UpdatedAt).Scan(&p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var productOrder = map[ProductSort]string{
	SortName:      `name COLLATE "C" ASC`,
	SortPriceLow:  `price ASC`,
	SortPriceHigh: `price DESC`,
	SortRating:    `rating DESC`,
	SortNewest:    `created_at DESC`,
}

func (s *PostgresStore) Find(ctx context.Context, q ProductQuery) ([]domain.Product, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) int {
		args = append(args, v)
		return len(args)
	}
	if q.Category != "" {
		where = append(where, fmt.Sprintf("strpos(lower(category), lower($%d)) > 0", arg(q.Category)))
	}
	if q.MinPrice != nil {
		where = append(where, fmt.Sprintf("price >= $%d", arg(*q.MinPrice)))
	}
	if q.MaxPrice != nil {
		where = append(where, fmt.Sprintf("price <= $%d", arg(*q.MaxPrice)))
	}
	if q.Search != "" {
		n := arg(q.Search)
		where = append(where, fmt.Sprintf("(strpos(lower(name), lower($%d)) > 0 OR strpos(lower(description), lower($%d)) > 0)", n, n))
	}
	if q.Featured {
		where = append(where, "featured")
	}
	if q.Trending {
		where = append(where, "trending")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order, ok := productOrder[q.Sort]
	if !ok {
		order = productOrder[SortName]
	}
	sql := `SELECT ` + productColumns + ` FROM products WHERE ` + cond +
		` ORDER BY ` + order + `, id COLLATE "C" ASC` +
		fmt.Sprintf(` OFFSET $%d`, arg(q.Offset))
	if q.Limit > 0 {
		sql += fmt.Sprintf(` LIMIT $%d`, arg(q.Limit))
	}

	rows, err := s.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *PostgresStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT DISTINCT category FROM products ORDER BY category COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// PostgresCarts stores one row per user with the lines as jsonb
type PostgresCarts struct{ store *PostgresStore }

func NewPostgresCarts(store *PostgresStore) *PostgresCarts { return &PostgresCarts{store: store} }

func (pc *PostgresCarts) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	c := domain.Cart{UserID: userID}
	var items []byte
	err := pc.store.conn(ctx).QueryRow(ctx, `
		SELECT items, total_items, total_price, last_updated FROM carts WHERE user_id = $1
	`, userID).Scan(&items, &c.TotalItems, &c.TotalPrice, &c.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &c, nil
}

func (pc *PostgresCarts) Save(ctx context.Context, c *domain.Cart) error {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = pc.store.conn(ctx).Exec(ctx, `
		INSERT INTO carts (user_id, items, total_items, total_price, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			items = EXCLUDED.items,
			total_items = EXCLUDED.total_items,
			total_price = EXCLUDED.total_price,
			last_updated = EXCLUDED.last_updated
	`, c.UserID, string(b), c.TotalItems, c.TotalPrice, c.LastUpdated)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// PostgresOrders keeps the frozen lines and shipping address as jsonb
type PostgresOrders struct{ store *PostgresStore }

func NewPostgresOrders(store *PostgresStore) *PostgresOrders { return &PostgresOrders{store: store} }

const orderColumns = `id, user_id, items, total, status, order_date, estimated_delivery,
	shipping_address, payment_method, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o        domain.Order
		items    []byte
		shipping []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &items, &o.Total, &o.Status, &o.OrderDate, &o.EstimatedDelivery,
		&shipping, &o.PaymentMethod, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return o, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("decode shipping address: %w", err)
	}
	return o, nil
}

func (po *PostgresOrders) Create(ctx context.Context, o *domain.Order) error {
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now().UTC()
	}
	o.UpdatedAt = o.OrderDate
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	_, err = po.store.conn(ctx).Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, o.ID, o.UserID, string(items), o.Total, o.Status, o.OrderDate, o.EstimatedDelivery,
		string(shipping), o.PaymentMethod, o.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (po *PostgresOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(po.store.conn(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// Update persists status and delivery changes; lines and total never change after creation
func (po *PostgresOrders) Update(ctx context.Context, o *domain.Order) error {
	o.UpdatedAt = time.Now().UTC()
	tag, err := po.store.conn(ctx).Exec(ctx, `
		UPDATE orders SET status = $2, estimated_delivery = $3, updated_at = $4 WHERE id = $1
	`, o.ID, o.Status, o.EstimatedDelivery, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (po *PostgresOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return po.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY order_date DESC, id DESC`, userID)
}

func (po *PostgresOrders) List(ctx context.Context) ([]domain.Order, error) {
	return po.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, id DESC`)
}

func (po *PostgresOrders) list(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	rows, err := po.store.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// PostgresUsers relies on the unique email column for uniqueness
type PostgresUsers struct{ store *PostgresStore }

func NewPostgresUsers(store *PostgresStore) *PostgresUsers { return &PostgresUsers{store: store} }

const userColumns = `id, name, email, password_hash, role, phone, address, joined_date`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u       domain.User
		address []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &address, &u.JoinedDate); err != nil {
		return u, err
	}
	if len(address) > 0 {
		var a domain.Address
		if err := json.Unmarshal(address, &a); err != nil {
			return u, fmt.Errorf("decode address: %w", err)
		}
		u.Address = &a
	}
	return u, nil
}

func encodeAddress(a *domain.Address) (any, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (pu *PostgresUsers) Create(ctx context.Context, u *domain.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.JoinedDate.IsZero() {
		u.JoinedDate = time.Now().UTC()
	}
	address, err := encodeAddress(u.Address)
	if err != nil {
		return err
	}
	_, err = pu.store.conn(ctx).Exec(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, address, u.JoinedDate)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (pu *PostgresUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return pu.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (pu *PostgresUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return pu.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email))
}

func (pu *PostgresUsers) get(ctx context.Context, sql string, arg any) (*domain.User, error) {
	u, err := scanUser(pu.store.conn(ctx).QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (pu *PostgresUsers) Update(ctx context.Context, u *domain.User) error {
	u.Email = NormalizeEmail(u.Email)
	address, err := encodeAddress(u.Address)
	if err != nil {
		return err
	}
	tag, err := pu.store.conn(ctx).Exec(ctx, `
		UPDATE users SET name = $2, email = $3, password_hash = $4, role = $5, phone = $6, address = $7
		WHERE id = $1
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, address)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (pu *PostgresUsers) Delete(ctx context.Context, id string) error {
	tag, err := pu.store.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (pu *PostgresUsers) List(ctx context.Context) ([]domain.User, error) {
	rows, err := pu.store.conn(ctx).Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY joined_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// PostgresTx binds a pgx transaction to the context handed to fn
type PostgresTx struct{ store *PostgresStore }

func NewPostgresTx(store *PostgresStore) *PostgresTx { return &PostgresTx{store: store} }

func (t *PostgresTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, t.store.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, pgTxKey{}, tx))
	})
}
