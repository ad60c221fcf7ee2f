package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New[string, int]()
	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
}

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()

	r.Register("one", 1)
	r.Register("two", 2)

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

// TestKeys_RegistrationOrder verifies iteration follows first registration.
func TestKeys_RegistrationOrder(t *testing.T) {
	r := New[string, int]()
	for i, k := range []string{"start", "upload", "script", "ai"} {
		r.Register(k, i)
	}

	assert.Equal(t, []string{"start", "upload", "script", "ai"}, r.Keys())
	assert.Equal(t, []int{0, 1, 2, 3}, r.Values())
}

// TestRegister_OverwriteKeepsPosition verifies replacing a value does not reorder.
func TestRegister_OverwriteKeepsPosition(t *testing.T) {
	r := New[string, string]()
	r.Register("a", "1")
	r.Register("b", "2")
	r.Register("a", "3")

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	v, _ := r.Get("a")
	assert.Equal(t, "3", v)
}

// TestDelete_ThenRegisterMovesToEnd verifies delete removes the key from the order.
func TestDelete_ThenRegisterMovesToEnd(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)
	r.Register("c", 3)

	r.Delete("a")
	assert.Equal(t, []string{"b", "c"}, r.Keys())
	assert.False(t, r.Has("a"))

	r.Register("a", 4)
	assert.Equal(t, []string{"b", "c", "a"}, r.Keys())

	// Deleting a missing key is a no-op.
	r.Delete("zzz")
	assert.Equal(t, 3, r.Len())
}

func TestLookup(t *testing.T) {
	r := New[string, string]()
	r.Register("known", "value")

	assert.Equal(t, "value", r.Lookup("known", "fallback"))
	assert.Equal(t, "fallback", r.Lookup("unknown", "fallback"))
}

// TestRange_StopsEarlyAndAllowsMutation verifies Range semantics.
func TestRange_StopsEarlyAndAllowsMutation(t *testing.T) {
	r := New[int, int]()
	for i := 0; i < 5; i++ {
		r.Register(i, i*10)
	}

	var seen []int
	r.Range(func(k, v int) bool {
		seen = append(seen, k)
		r.Delete(k)
		return k < 2
	})

	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, []int{3, 4}, r.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	r := New[int, int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Register(n, n)
			_, _ = r.Get(n)
			_ = r.Keys()
		}(i)
	}
	wg.Wait()

	require.Equal(t, 50, r.Len())
	assert.Len(t, r.Keys(), 50)
}
