package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"MiniShop/internal/session"
)

func newManager(t *testing.T, store session.Store) *session.Manager {
	t.Helper()

	tm, err := session.NewTokenMaker("test-secret-test-secret-test-secret")
	if err != nil {
		t.Fatalf("NewTokenMaker: %v", err)
	}

	n := 0
	return &session.Manager{
		Store:  store,
		Tokens: tm,
		Log:    zap.NewNop(),
		NewID: func() string {
			n++
			return "sid-" + string(rune('0'+n))
		},
	}
}

func serve(t *testing.T, m *session.Manager, h http.HandlerFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	m.Middleware(h).ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.DefaultCookieName {
			return c
		}
	}
	return nil
}

func mustSession(t *testing.T, r *http.Request) *session.Session {
	t.Helper()

	s, ok := session.FromContext(r.Context())
	if !ok {
		t.Fatalf("no session in context")
	}
	return s
}

func TestMiddleware_PersistsModifiedSession(t *testing.T) {
	store := session.NewMemStore()
	m := newManager(t, store)

	rec := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		mustSession(t, r).Set("greeting", "hello")
		w.WriteHeader(http.StatusCreated)
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d", rec.Code)
	}
	c := sessionCookie(t, rec)
	if c == nil {
		t.Fatalf("no session cookie")
	}
	if !c.HttpOnly {
		t.Fatalf("cookie not HttpOnly")
	}
	if _, ok, _ := store.Load(context.Background(), "sid-1"); !ok {
		t.Fatalf("session not saved")
	}

	var got string
	serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		s := mustSession(t, r)
		if s.ID() != "sid-1" {
			t.Errorf("id=%s", s.ID())
		}
		_, _ = s.Get("greeting", &got)
	}, c)

	if got != "hello" {
		t.Fatalf("got=%q", got)
	}
}

func TestMiddleware_UnmodifiedSessionNotSaved(t *testing.T) {
	store := session.NewMemStore()
	m := newManager(t, store)

	rec := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	if sessionCookie(t, rec) != nil {
		t.Fatalf("unexpected cookie")
	}
	if store.Len() != 0 {
		t.Fatalf("store len=%d", store.Len())
	}
}

func TestMiddleware_CommitsBeforeBody(t *testing.T) {
	store := session.NewMemStore()
	m := newManager(t, store)

	rec := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		mustSession(t, r).Set("k", 1)
		_, _ = w.Write([]byte("body"))
	})

	if sessionCookie(t, rec) == nil {
		t.Fatalf("cookie missing when handler wrote a body")
	}
	if rec.Body.String() != "body" {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestMiddleware_EmptiedSessionIsDeleted(t *testing.T) {
	store := session.NewMemStore()
	m := newManager(t, store)

	first := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		mustSession(t, r).Set("k", 1)
	})
	c := sessionCookie(t, first)

	rec := serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		mustSession(t, r).Delete("k")
	}, c)

	if store.Len() != 0 {
		t.Fatalf("session not deleted from store")
	}
	expired := sessionCookie(t, rec)
	if expired == nil || expired.MaxAge >= 0 {
		t.Fatalf("cookie not expired: %+v", expired)
	}
}

func TestMiddleware_BadCookieStartsFresh(t *testing.T) {
	store := session.NewMemStore()
	m := newManager(t, store)

	var id string
	serve(t, m, func(w http.ResponseWriter, r *http.Request) {
		s := mustSession(t, r)
		id = s.ID()
		if !s.IsNew() {
			t.Errorf("expected new session")
		}
	}, &http.Cookie{Name: session.DefaultCookieName, Value: "forged"})

	if id != "sid-1" {
		t.Fatalf("id=%s", id)
	}
}
