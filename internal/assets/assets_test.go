package assets

import (
	"fmt"
	"sync"
	"testing"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache[int]()

	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Set("a", 1)
	c.Set("a", 2)
	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v; want 2, true", v, ok)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d, %d; want 1, 1", hits, misses)
	}
}

func TestCacheSetIfAbsent(t *testing.T) {
	c := NewCache[string]()

	if !c.SetIfAbsent("chair", "first") {
		t.Fatal("first SetIfAbsent should store")
	}
	if c.SetIfAbsent("chair", "second") {
		t.Fatal("second SetIfAbsent should not store")
	}
	if v, _ := c.Get("chair"); v != "first" {
		t.Errorf("Get(chair) = %q, want first", v)
	}
}

func TestCacheConcurrentWriters(t *testing.T) {
	c := NewCache[int]()

	var wg sync.WaitGroup
	stored := make(chan bool, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(fmt.Sprintf("k%d", i%16), i)
			stored <- c.SetIfAbsent("shared", i)
		}(i)
	}
	wg.Wait()
	close(stored)

	winners := 0
	for ok := range stored {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("SetIfAbsent winners = %d, want 1", winners)
	}
	if c.Len() != 17 {
		t.Errorf("Len() = %d, want 17", c.Len())
	}
}

func TestCacheKeysSortedAndClear(t *testing.T) {
	c := NewCache[int]()
	c.Set("b", 1)
	c.Set("a", 2)
	c.Set("c", 3)

	keys := c.Keys()
	want := []string{"a", "b", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}
	if !c.Has("a") {
		t.Error("Has(a) = false")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	if hits, misses := c.Stats(); hits != 0 || misses != 0 {
		t.Errorf("Stats() after Clear = %d, %d", hits, misses)
	}
}
