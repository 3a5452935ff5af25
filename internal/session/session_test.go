package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestSession_SetGetDelete(t *testing.T) {
	s := New("id1")
	if s.Modified() {
		t.Fatalf("new session is modified")
	}

	s.Set("n", 3)
	if !s.Modified() {
		t.Fatalf("Set did not mark modified")
	}

	var n int
	ok, err := s.Get("n", &n)
	if err != nil || !ok || n != 3 {
		t.Fatalf("Get: n=%d ok=%v err=%v", n, ok, err)
	}

	s.Delete("n")
	if ok, _ := s.Get("n", &n); ok {
		t.Fatalf("value survived Delete")
	}
}

func TestSession_DeleteAbsentKeepsClean(t *testing.T) {
	s, err := Decode("id1", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	s.Delete("missing")
	if s.Modified() {
		t.Fatalf("deleting a missing key marked modified")
	}
}

func TestSession_GetDoesNotAlias(t *testing.T) {
	s := New("id1")
	s.Set("m", map[string]int{"a": 1})

	var got map[string]int
	if _, err := s.Get("m", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	got["a"] = 2

	var again map[string]int
	_, _ = s.Get("m", &again)
	if again["a"] != 1 {
		t.Fatalf("Get returned an alias")
	}
}

func TestSession_EncodeDecode(t *testing.T) {
	s := New("id1")
	s.Set("cart", map[string]any{"1": map[string]any{"quantity": 2, "price": "9.99"}})

	raw, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	loaded, err := Decode("id1", raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if loaded.IsNew() || loaded.Modified() {
		t.Fatalf("loaded session flags: new=%v modified=%v", loaded.IsNew(), loaded.Modified())
	}

	var got map[string]struct {
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
	}
	if _, err := loaded.Get("cart", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["1"].Quantity != 2 || got["1"].Price != "9.99" {
		t.Fatalf("got=%+v", got)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode("id1", []byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSession_GetTypeMismatch(t *testing.T) {
	s := New("id1")
	s.Set("v", json.RawMessage(`"text"`))

	var n int
	ok, err := s.Get("v", &n)
	if !ok || err == nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}

func TestMemStore_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	st := NewMemStore()
	st.now = func() time.Time { return now }

	ctx := context.Background()
	if err := st.Save(ctx, "a", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok, _ := st.Load(ctx, "a"); !ok {
		t.Fatalf("fresh session not found")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := st.Load(ctx, "a"); ok {
		t.Fatalf("expired session still loaded")
	}
	if st.Len() != 0 {
		t.Fatalf("expired entry not dropped")
	}
}
