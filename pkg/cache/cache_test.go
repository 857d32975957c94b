package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 100*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected expired key to return false")
	}
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 1*time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	if ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New()
	c.Set("quote:rec-1:2", 180.0, 1*time.Second)
	c.Set("quote:rec-1:5", 450.0, 1*time.Second)
	c.Set("quote:rec-2:1", 80.0, 1*time.Second)
	c.Invalidate("quote:rec-1")
	_, ok1 := c.Get("quote:rec-1:2")
	_, ok2 := c.Get("quote:rec-1:5")
	_, ok3 := c.Get("quote:rec-2:1")
	if ok1 || ok2 {
		t.Fatalf("expected rec-1 quotes to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected rec-2 quote to still exist")
	}
}
