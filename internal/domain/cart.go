package domain

import "time"

// CartItem is one line of a cart with the product data captured when it was added
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Category  string  `json:"category"`
}

func (it CartItem) Subtotal() float64 { return it.Price * float64(it.Quantity) }

// Cart holds one user's pending purchase. Totals are derived and are rebuilt
// by Recalculate after every mutation.
type Cart struct {
	UserID      string     `json:"userId"`
	Items       []CartItem `json:"items"`
	TotalItems  int        `json:"totalItems"`
	TotalPrice  float64    `json:"totalPrice"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

func NewCart(userID string, now time.Time) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}, LastUpdated: now}
}

func (c *Cart) find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Item returns the line for productID, if present
func (c *Cart) Item(productID string) (CartItem, bool) {
	if i := c.find(productID); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// AddItem accumulates quantity on an existing line or appends a new one
func (c *Cart) AddItem(p ProductSnapshot, qty int, now time.Time) {
	if i := c.find(p.ID); i >= 0 {
		c.Items[i].Quantity += qty
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  qty,
			Category:  p.Category,
		})
	}
	c.Recalculate(now)
}

// SetQuantity overwrites the quantity of a line; qty <= 0 drops the line.
// Unknown products are ignored.
func (c *Cart) SetQuantity(productID string, qty int, now time.Time) {
	i := c.find(productID)
	if i < 0 {
		c.Recalculate(now)
		return
	}
	if qty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = qty
	}
	c.Recalculate(now)
}

func (c *Cart) RemoveItem(productID string, now time.Time) {
	if i := c.find(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
	c.Recalculate(now)
}

func (c *Cart) Clear(now time.Time) {
	c.Items = []CartItem{}
	c.Recalculate(now)
}

// Merge applies client-held lines: a known product keeps the larger of the two
// quantities, an unknown product is appended as sent. Stored quantities never go down.
func (c *Cart) Merge(incoming []CartItem, now time.Time) {
	for _, in := range incoming {
		if i := c.find(in.ProductID); i >= 0 {
			if in.Quantity > c.Items[i].Quantity {
				c.Items[i].Quantity = in.Quantity
			}
			continue
		}
		c.Items = append(c.Items, in)
	}
	c.Recalculate(now)
}

// Recalculate rebuilds the totals from the lines
func (c *Cart) Recalculate(now time.Time) {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	totalItems := 0
	totalPrice := 0.0
	for _, it := range c.Items {
		totalItems += it.Quantity
		totalPrice += it.Subtotal()
	}
	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
	c.LastUpdated = now
}

// Clone returns a deep copy so stored carts are never aliased by callers
func (c Cart) Clone() Cart {
	cp := c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return cp
}
