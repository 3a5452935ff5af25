// Package cart keeps a shopper's selected products inside their session.
//
// The cart owns no storage of its own: its whole state is one Items value
// stored under a configured session key, and persistence is left to the
// session layer once the cart marks the session modified.
package cart

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/shopspring/decimal"

	"MiniShop/internal/catalog"
)

var ErrBadPrice = errors.New("cart: malformed stored price")

// Session is the slice of a request session the cart needs.
type Session interface {
	Get(key string, dst any) (bool, error)
	Set(key string, v any)
	Delete(key string)
	MarkModified()
}

// Catalog resolves product keys in a single batched lookup.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []string) ([]catalog.Product, error)
}

// Line is an item enriched for display. Product is nil when the catalog
// no longer knows the product.
type Line struct {
	Key        string           `json:"product_id"`
	Quantity   int              `json:"quantity"`
	Price      decimal.Decimal  `json:"price"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	Product    *catalog.Product `json:"product"`
}

type Cart struct {
	sess     Session
	key      string
	products Catalog
	items    *Items
}

// New binds a cart to sess under key. A session without a cart gets an empty
// one stored right away.
func New(sess Session, key string, products Catalog) (*Cart, error) {
	items := NewItems()

	ok, err := sess.Get(key, items)
	if err != nil {
		return nil, fmt.Errorf("cart: load %q: %w", key, err)
	}
	if !ok || items.Len() == 0 {
		items = NewItems()
		sess.Set(key, items)
	}

	return &Cart{
		sess:     sess,
		key:      key,
		products: products,
		items:    items,
	}, nil
}

// Add puts quantity of p into the cart, or sets it when updateQuantity is
// true. The price is captured only the first time p is added.
func (c *Cart) Add(p catalog.Product, quantity int, updateQuantity bool) {
	key := p.Key()

	it, ok := c.items.Get(key)
	if !ok {
		it = &Item{Quantity: 0, Price: priceString(p.Price)}
		c.items.Put(key, it)
	}

	if updateQuantity {
		it.Quantity = quantity
	} else {
		it.Quantity += quantity
	}
	c.save()
}

func (c *Cart) Remove(p catalog.Product) {
	c.RemoveKey(p.Key())
}

// RemoveKey drops the item stored under key, if there is one.
func (c *Cart) RemoveKey(key string) {
	if c.items.Delete(key) {
		c.save()
	}
}

// Lines fetches every product in the cart at once and yields the stored
// items in first-add order with their totals. Each call reads the cart
// afresh; the cart itself is not changed.
func (c *Cart) Lines(ctx context.Context) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		work := c.items.Clone()

		found, err := c.fetch(ctx, work.Keys())
		if err != nil {
			yield(Line{}, err)
			return
		}

		for _, key := range work.Keys() {
			it, _ := work.Get(key)

			price, err := parsePrice(key, it.Price)
			if err != nil {
				yield(Line{}, err)
				return
			}

			l := Line{
				Key:        key,
				Quantity:   it.Quantity,
				Price:      price,
				TotalPrice: price.Mul(decimal.NewFromInt(int64(it.Quantity))),
				Product:    found[key],
			}
			if !yield(l, nil) {
				return
			}
		}
	}
}

func (c *Cart) fetch(ctx context.Context, keys []string) (map[string]*catalog.Product, error) {
	found := make(map[string]*catalog.Product, len(keys))
	if c.products == nil || len(keys) == 0 {
		return found, nil
	}

	products, err := c.products.FindByIDs(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("cart: fetch products: %w", err)
	}
	for i := range products {
		found[products[i].Key()] = &products[i]
	}
	return found, nil
}

// Len is the total quantity across all items, not the number of products.
func (c *Cart) Len() int {
	n := 0
	for _, key := range c.items.keys {
		n += c.items.m[key].Quantity
	}
	return n
}

// Distinct is the number of different products in the cart.
func (c *Cart) Distinct() int { return c.items.Len() }

func (c *Cart) Keys() []string { return c.items.Keys() }

// Item returns a copy of the stored record for key.
func (c *Cart) Item(key string) (Item, bool) {
	it, ok := c.items.Get(key)
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// TotalPrice sums price times quantity straight from the stored strings.
func (c *Cart) TotalPrice() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, key := range c.items.keys {
		it := c.items.m[key]
		price, err := parsePrice(key, it.Price)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total, nil
}

// Clear removes the cart from the session altogether.
func (c *Cart) Clear() {
	c.sess.Delete(c.key)
	c.items = NewItems()
	c.sess.MarkModified()
}

func (c *Cart) save() {
	c.sess.Set(c.key, c.items)
	c.sess.MarkModified()
}

func parsePrice(key, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: product %s: %q", ErrBadPrice, key, s)
	}
	return d, nil
}

// priceString keeps at least cents so "10" is stored as "10.00".
func priceString(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}
