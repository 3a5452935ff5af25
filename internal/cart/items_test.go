package cart

import (
	"encoding/json"
	"testing"
)

func TestItems_JSONKeepsOrder(t *testing.T) {
	in := []byte(`{"9":{"quantity":1,"price":"1.00"},"2":{"quantity":2,"price":"2.00"},"5":{"quantity":3,"price":"3.00"}}`)

	var it Items
	if err := json.Unmarshal(in, &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	keys := it.Keys()
	if len(keys) != 3 || keys[0] != "9" || keys[1] != "2" || keys[2] != "5" {
		t.Fatalf("keys=%v", keys)
	}

	out, err := json.Marshal(&it)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(in) {
		t.Fatalf("got  %s\nwant %s", out, in)
	}
}

func TestItems_DeleteAndReinsertMovesToEnd(t *testing.T) {
	it := NewItems()
	it.Put("1", &Item{Quantity: 1, Price: "1.00"})
	it.Put("2", &Item{Quantity: 1, Price: "1.00"})

	if !it.Delete("1") {
		t.Fatalf("delete reported absent")
	}
	if it.Delete("1") {
		t.Fatalf("second delete reported present")
	}
	it.Put("1", &Item{Quantity: 1, Price: "1.00"})

	keys := it.Keys()
	if keys[0] != "2" || keys[1] != "1" {
		t.Fatalf("keys=%v", keys)
	}
}

func TestItems_CloneIsDeep(t *testing.T) {
	it := NewItems()
	it.Put("1", &Item{Quantity: 1, Price: "1.00"})

	c := it.Clone()
	v, _ := c.Get("1")
	v.Quantity = 99

	orig, _ := it.Get("1")
	if orig.Quantity != 1 {
		t.Fatalf("clone aliases original")
	}
}

func TestItems_NullAndEmpty(t *testing.T) {
	for _, in := range []string{`null`, `{}`} {
		var it Items
		if err := json.Unmarshal([]byte(in), &it); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if it.Len() != 0 {
			t.Fatalf("%s: len=%d", in, it.Len())
		}
	}
}
