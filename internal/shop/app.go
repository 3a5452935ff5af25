package shop

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MiniShop/internal/cart"
	"MiniShop/internal/catalog"
	"MiniShop/internal/session"
	"MiniShop/pkg/kit"
)

const (
	maxFormQuantity = 20
	readyTimeout    = 1 * time.Second
)

type Server struct {
	Catalog  catalog.Store
	Sessions session.Store
	CartKey  string
	Log      *zap.Logger

	// Ops counts cart mutations by operation; optional.
	Ops *prometheus.CounterVec
}

func NewOpsCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Cart mutations, by operation",
		},
		[]string{"op"},
	)
	reg.MustRegister(c)
	return c
}

type addReq struct {
	Quantity *int `json:"quantity"`
	Update   bool `json:"update"`
}

type lineView struct {
	cart.Line
	Missing bool `json:"missing,omitempty"`
}

type cartView struct {
	Items    []lineView      `json:"items"`
	Count    int             `json:"count"`
	Distinct int             `json:"distinct"`
	Total    decimal.Decimal `json:"total"`
}

type summaryView struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type addResp struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     string          `json:"price"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
}

var errNoSession = errors.New("no session in request context")

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Sessions.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed: sessions", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "sessions not ready", nil)
		return
	}
	if err := s.Catalog.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed: catalog", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) cartFor(r *http.Request) (*cart.Cart, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return nil, errNoSession
	}
	return cart.New(sess, s.CartKey, s.Catalog)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}

	view := cartView{Items: make([]lineView, 0, c.Distinct())}
	for l, err := range c.Lines(r.Context()) {
		if err != nil {
			s.cartError(w, r, "iterate cart failed", err)
			return
		}
		view.Items = append(view.Items, lineView{Line: l, Missing: l.Product == nil})
	}

	total, err := c.TotalPrice()
	if err != nil {
		s.cartError(w, r, "total price failed", err)
		return
	}

	view.Count = c.Len()
	view.Distinct = c.Distinct()
	view.Total = total
	kit.WriteJSON(w, http.StatusOK, view)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}

	total, err := c.TotalPrice()
	if err != nil {
		s.cartError(w, r, "total price failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, summaryView{Count: c.Len(), Total: total})
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	qty, ok := formQuantity(req)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "bad quantity", map[string]any{"max": maxFormQuantity})
		return
	}

	id := chi.URLParam(r, "id")
	p, err := s.Catalog.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.String("id", id))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
		return
	}

	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	c.Add(p, qty, req.Update)
	s.count("add")

	s.writeAdded(w, r, c, p.Key())
}

func (s *Server) writeAdded(w http.ResponseWriter, r *http.Request, c *cart.Cart, key string) {
	total, err := c.TotalPrice()
	if err != nil {
		s.cartError(w, r, "total price failed", err)
		return
	}

	it, _ := c.Item(key)
	kit.WriteJSON(w, http.StatusOK, addResp{
		ProductID: key,
		Quantity:  it.Quantity,
		Price:     it.Price,
		Count:     c.Len(),
		Total:     total,
	})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	c.RemoveKey(canonicalKey(chi.URLParam(r, "id")))
	s.count("remove")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	c, ok := s.loadCart(w, r)
	if !ok {
		return
	}
	c.Clear()
	s.count("clear")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.Catalog.List(r.Context())
	if err != nil {
		s.Log.Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Catalog.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.String("id", id))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) loadCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	c, err := s.cartFor(r)
	if err != nil {
		s.cartError(w, r, "load cart failed", err)
		return nil, false
	}
	return c, true
}

func (s *Server) cartError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.Log.Error(msg, zap.Error(err))
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func (s *Server) count(op string) {
	if s.Ops != nil {
		s.Ops.WithLabelValues(op).Inc()
	}
}

// formQuantity applies the storefront form bounds: 1..20 to add, 0..20 to
// overwrite. Quantity defaults to 1.
func formQuantity(req addReq) (int, bool) {
	if req.Quantity == nil {
		return 1, true
	}

	q := *req.Quantity
	lo := 1
	if req.Update {
		lo = 0
	}
	return q, q >= lo && q <= maxFormQuantity
}

// canonicalKey maps "007" to "7" so it matches the key Add stored.
func canonicalKey(id string) string {
	id = strings.TrimSpace(id)
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return id
}
