package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

// Key is the canonical string form of the product id used by carts.
func (p Product) Key() string {
	return strconv.FormatInt(p.ID, 10)
}

type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// ParseIDs converts keys to numeric ids, dropping anything that is not one.
func ParseIDs(keys []string) []int64 {
	out := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
