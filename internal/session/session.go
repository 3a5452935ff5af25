// Package session provides per-visitor key/value state that survives across
// requests. Handlers change values freely; the middleware persists the
// session once per request, and only when it was marked modified.
package session

import (
	"context"
	"encoding/json"
	"fmt"
)

type Session struct {
	id       string
	values   map[string]any
	modified bool
	isNew    bool
}

// New returns an empty session that has never been stored.
func New(id string) *Session {
	return &Session{
		id:     id,
		values: make(map[string]any),
		isNew:  true,
	}
}

// Decode rebuilds a stored session. Values stay raw until read with Get.
func Decode(id string, data []byte) (*Session, error) {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}

	s := &Session{id: id, values: make(map[string]any, len(raw))}
	for k, v := range raw {
		s.values[k] = v
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) IsNew() bool { return s.isNew }

func (s *Session) Modified() bool { return s.modified }

func (s *Session) Len() int { return len(s.values) }

// Get decodes the value under key into dst. Values set during this request
// are round-tripped through JSON so dst never aliases them.
func (s *Session) Get(key string, dst any) (bool, error) {
	v, ok := s.values[key]
	if !ok {
		return false, nil
	}

	raw, isRaw := v.(json.RawMessage)
	if !isRaw {
		b, err := json.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("session: encode %q: %w", key, err)
		}
		raw = b
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("session: decode %q: %w", key, err)
	}
	return true, nil
}

// Set stores v under key and marks the session modified. v is kept as is,
// so later in-place changes to it are persisted as long as MarkModified is
// called.
func (s *Session) Set(key string, v any) {
	s.values[key] = v
	s.modified = true
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
}

func (s *Session) MarkModified() { s.modified = true }

func (s *Session) Encode() ([]byte, error) {
	b, err := json.Marshal(s.values)
	if err != nil {
		return nil, fmt.Errorf("session: encode %s: %w", s.id, err)
	}
	return b, nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
