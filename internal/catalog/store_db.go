package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	productColumns = `id, title, slug, price, available`
)

type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a pool through the pgx database/sql driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		out, err = scanProducts(rows, 16)
		return err
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Product, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Product{}, ErrNotFound
	}

	var p Product
	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
		`, n).Scan(&p.ID, &p.Title, &p.Slug, &p.Price, &p.Available)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// FindByIDs runs one query for the whole set; ids with no row are simply
// absent from the result.
func (s *PostgresStore) FindByIDs(ctx context.Context, ids []string) ([]Product, error) {
	nums := ParseIDs(ids)
	if len(nums) == 0 {
		return []Product{}, nil
	}

	var out []Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = ANY($1)
		`, nums)
		if err != nil {
			return err
		}
		out, err = scanProducts(rows, len(nums))
		return err
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanProducts(rows *sql.Rows, hint int) ([]Product, error) {
	defer rows.Close()

	out := make([]Product, 0, hint)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Price, &p.Available); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
