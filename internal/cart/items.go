package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item is what the session keeps per product: the quantity and the unit
// price as it was when the product was first added.
type Item struct {
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Items maps product keys to items and remembers first-add order. It
// encodes as a plain JSON object whose members follow that order.
type Items struct {
	keys []string
	m    map[string]*Item
}

func NewItems() *Items {
	return &Items{m: make(map[string]*Item)}
}

func (it *Items) Len() int { return len(it.keys) }

func (it *Items) Get(key string) (*Item, bool) {
	v, ok := it.m[key]
	return v, ok
}

// Put inserts or replaces key; a new key goes to the end.
func (it *Items) Put(key string, v *Item) {
	if it.m == nil {
		it.m = make(map[string]*Item)
	}
	if _, ok := it.m[key]; !ok {
		it.keys = append(it.keys, key)
	}
	it.m[key] = v
}

func (it *Items) Delete(key string) bool {
	if _, ok := it.m[key]; !ok {
		return false
	}
	delete(it.m, key)
	for i, k := range it.keys {
		if k == key {
			it.keys = append(it.keys[:i], it.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns a copy of the keys in insertion order.
func (it *Items) Keys() []string {
	out := make([]string, len(it.keys))
	copy(out, it.keys)
	return out
}

// Clone copies the mapping and every item.
func (it *Items) Clone() *Items {
	out := &Items{
		keys: it.Keys(),
		m:    make(map[string]*Item, len(it.m)),
	}
	for k, v := range it.m {
		c := *v
		out.m[k] = &c
	}
	return out
}

func (it *Items) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range it.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(it.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (it *Items) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*it = Items{m: make(map[string]*Item)}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("cart items: expected object, got %v", tok)
	}

	out := Items{m: make(map[string]*Item)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("cart items: expected key, got %v", tok)
		}

		var v Item
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("cart items: %q: %w", key, err)
		}
		out.Put(key, &v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*it = out
	return nil
}
