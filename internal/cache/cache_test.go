package cache

import (
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	c := NewMemory(time.Minute)

	c.Set("k", []byte("v"))

	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Get = (%q, %v)", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(10 * time.Millisecond)

	c.Set("k", []byte("v"))
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemory_DeleteAndClear(t *testing.T) {
	c := NewMemory(time.Minute)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("deleted key still present")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Fatalf("cleared key still present")
	}
}
