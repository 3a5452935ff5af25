package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	DefaultCookieName = "sessionid"
	DefaultTTL        = 14 * 24 * time.Hour

	commitTimeout = 3 * time.Second
)

// Manager loads the session for each request and writes it back before the
// response goes out.
type Manager struct {
	Store      Store
	Tokens     *TokenMaker
	CookieName string
	TTL        time.Duration
	Secure     bool
	Log        *zap.Logger

	// Commits counts commit outcomes by result; optional.
	Commits *prometheus.CounterVec
	// NewID defaults to random uuids.
	NewID func() string
}

func NewCommitCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_commits_total",
			Help: "Session commits at the end of a request, by result",
		},
		[]string{"result"},
	)
	reg.MustRegister(c)
	return c
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() { m.commit(r.Context(), w, sess) }

		next.ServeHTTP(cw, r.WithContext(NewContext(r.Context(), sess)))
		cw.commitOnce()
	})
}

func (m *Manager) load(r *http.Request) *Session {
	c, err := r.Cookie(m.cookieName())
	if err != nil || c.Value == "" {
		return New(m.newID())
	}

	id, err := m.Tokens.Parse(c.Value)
	if err != nil {
		m.logger().Debug("session cookie rejected", zap.Error(err))
		return New(m.newID())
	}

	data, ok, err := m.Store.Load(r.Context(), id)
	if err != nil {
		m.logger().Warn("session load failed", zap.Error(err), zap.String("session_id", id))
		return New(m.newID())
	}
	if !ok {
		return New(m.newID())
	}

	sess, err := Decode(id, data)
	if err != nil {
		m.logger().Warn("session decode failed", zap.Error(err), zap.String("session_id", id))
		return New(m.newID())
	}
	return sess
}

// commit runs before the status line is written, so it may still set the
// cookie header.
func (m *Manager) commit(parent context.Context, w http.ResponseWriter, sess *Session) {
	if !sess.Modified() {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), commitTimeout)
	defer cancel()

	if sess.Len() == 0 {
		if !sess.IsNew() {
			if err := m.Store.Delete(ctx, sess.ID()); err != nil {
				m.fail("delete", err, sess)
				return
			}
			m.expireCookie(w)
		}
		m.count("deleted")
		return
	}

	data, err := sess.Encode()
	if err != nil {
		m.fail("encode", err, sess)
		return
	}
	if err := m.Store.Save(ctx, sess.ID(), data, m.ttl()); err != nil {
		m.fail("save", err, sess)
		return
	}

	tok, err := m.Tokens.New(sess.ID(), m.ttl())
	if err != nil {
		m.fail("sign", err, sess)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(),
		Value:    tok,
		Path:     "/",
		MaxAge:   int(m.ttl().Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	m.count("saved")
}

func (m *Manager) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) fail(step string, err error, sess *Session) {
	m.logger().Error("session commit failed",
		zap.String("step", step),
		zap.String("session_id", sess.ID()),
		zap.Error(err),
	)
	m.count("error")
}

func (m *Manager) count(result string) {
	if m.Commits != nil {
		m.Commits.WithLabelValues(result).Inc()
	}
}

func (m *Manager) cookieName() string {
	if m.CookieName == "" {
		return DefaultCookieName
	}
	return m.CookieName
}

func (m *Manager) ttl() time.Duration {
	if m.TTL <= 0 {
		return DefaultTTL
	}
	return m.TTL
}

func (m *Manager) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

func (m *Manager) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}

// commitWriter runs commit exactly once, right before anything reaches the
// client.
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *commitWriter) commitOnce() {
	if w.committed {
		return
	}
	w.committed = true
	w.commit()
}

func (w *commitWriter) WriteHeader(code int) {
	w.commitOnce()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.commitOnce()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Flush() {
	w.commitOnce()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *commitWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
