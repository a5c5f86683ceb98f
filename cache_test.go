package mathflow

import (
	"context"
	"testing"
	"time"

	"github.com/njchilds90/mathflow/errs"
)

func TestCacheEvictsLeastRecent(t *testing.T) {
	c := newCache(2)
	keys := make([]cacheKey, 3)
	for i, expr := range []string{"a", "b", "c"} {
		k, err := c.key(&Request{Op: "simplify", Expression: expr})
		if err != nil {
			t.Fatal(err)
		}
		keys[i] = k
	}

	c.put(keys[0], &Response{Result: "a"})
	c.put(keys[1], &Response{Result: "b"})
	if _, ok := c.get(keys[0]); !ok {
		t.Fatal("a missing")
	}
	c.put(keys[2], &Response{Result: "c"})

	if _, ok := c.get(keys[1]); ok {
		t.Error("b should have been evicted")
	}
	if got, ok := c.get(keys[0]); !ok || got.Result != "a" {
		t.Errorf("want a, got %v", got)
	}
	if c.len() != 2 {
		t.Errorf("want 2 entries, got %d", c.len())
	}
}

func TestCacheKey(t *testing.T) {
	c := newCache(1)
	req := Request{Op: "sum", Expression: "i", Variable: "i", Start: "1", End: "n"}
	k1, _ := c.key(&req)
	k2, _ := c.key(&req)
	if k1 != k2 {
		t.Error("key is not deterministic")
	}
	req.End = "m"
	if k3, _ := c.key(&req); k3 == k1 {
		t.Error("different requests share a key")
	}
	if k4, _ := newCache(1).key(&Request{Op: "sum", Expression: "i", Variable: "i", Start: "1", End: "n"}); k4 == k1 {
		t.Error("keys from different caches collide")
	}
}

// A caller that gives up does not cancel the computation other callers
// may be sharing.
func TestDoCancelledCallerLeavesComputation(t *testing.T) {
	e := New(DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := Request{Op: "expand", Expression: `(x + y + 1)^{6}`}
	if _, err := e.Do(ctx, req); !errs.Has(err, errs.ComputationTimeoutError) {
		t.Fatalf("cancelled caller: want ComputationTimeoutError, got %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for e.cache.len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("shared computation was abandoned with its first caller")
		}
		time.Sleep(5 * time.Millisecond)
	}
	resp, err := e.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("second caller: %v", err)
	}
	if resp.Result == "" {
		t.Error("second caller got an empty result")
	}
}
