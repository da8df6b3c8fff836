package store_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/guils/pkg/store"
)

func TestShardedPutGetDelete(t *testing.T) {
	s := store.NewSharded[[]int](4)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Put("a", []int{1, 2})
	s.Put("b", nil)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, got)

	got, ok = s.Get("b")
	require.True(t, ok, "a nil value is still present")
	assert.Nil(t, got)

	s.Put("a", []int{3})
	got, _ = s.Get("a")
	assert.Equal(t, []int{3}, got)

	assert.Equal(t, 2, s.Len())
	assert.ElementsMatch(t, []string{"a", "b"}, s.Keys())

	s.Delete("a")
	s.Delete("never-there")
	_, ok = s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestShardedDefaultShards(t *testing.T) {
	s := store.NewSharded[string](0)
	s.Put("x", "y")
	got, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, "y", got)
}

func TestShardedConcurrentWholeValueReplace(t *testing.T) {
	s := store.NewSharded[[]string](8)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("doc-%d", i%10)
				val := fmt.Sprintf("w%d-%d", w, i)
				s.Put(key, []string{val, val, val})
				got, ok := s.Get(key)
				if ok {
					// every observed value is one complete write
					assert.Len(t, got, 3)
					assert.Equal(t, got[0], got[2])
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 10, s.Len())
}
