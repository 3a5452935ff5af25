package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"MiniShop/internal/catalog"
)

func newCatalogTS(t *testing.T, store catalog.Store) *httptest.Server {
	t.Helper()

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: zap.NewNop()}, catalog.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestMemStore_FindByIDs(t *testing.T) {
	s := catalog.NewMemStore(catalog.SeedProducts()...)

	got, err := s.FindByIDs(context.Background(), []string{"3", "1", "42", "junk"})
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d products", len(got))
	}
}

func TestMemStore_Get(t *testing.T) {
	s := catalog.NewMemStore(catalog.SeedProducts()...)

	if _, err := s.Get(context.Background(), "1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestProduct_Key(t *testing.T) {
	if k := (catalog.Product{ID: 17}).Key(); k != "17" {
		t.Fatalf("key=%q", k)
	}
}

func TestClient_AgainstServer(t *testing.T) {
	ts := newCatalogTS(t, catalog.NewMemStore(catalog.SeedProducts()...))
	c := catalog.NewClient(ts.URL + "/")
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	all, err := c.List(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("List: n=%d err=%v", len(all), err)
	}

	some, err := c.FindByIDs(ctx, []string{"1", "2", "99"})
	if err != nil {
		t.Fatalf("FindByIDs: %v", err)
	}
	if len(some) != 2 {
		t.Fatalf("FindByIDs n=%d", len(some))
	}

	p, err := c.Get(ctx, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Price.String() != "9.99" {
		t.Fatalf("price=%s", p.Price)
	}

	if _, err := c.Get(ctx, "99"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	c := catalog.NewClient(ts.URL)
	if _, err := c.FindByIDs(context.Background(), []string{"1"}); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("err=%v", err)
	}
}

func TestClient_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	c := catalog.NewClient(ts.URL)
	if _, err := c.List(context.Background()); !errors.Is(err, catalog.ErrBadStatus) {
		t.Fatalf("err=%v", err)
	}
}

func TestParseIDs(t *testing.T) {
	got := catalog.ParseIDs([]string{"1", " 2 ", "x", ""})
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got=%v", got)
	}
}
