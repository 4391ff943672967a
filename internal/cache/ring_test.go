package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushBeyondCapacityEvictsOldest(t *testing.T) {
	r := NewRing[int](10, nil)
	for i := 1; i <= 11; i++ {
		r.Push(i)
	}

	got := r.List()
	require.Len(t, got, 10)
	assert.Equal(t, 11, got[0].Value)
	assert.Equal(t, 2, got[9].Value)
	for _, e := range got {
		assert.NotEqual(t, 1, e.Value)
	}
	assert.Equal(t, 10, r.Len())
}

func TestListIsNewestFirst(t *testing.T) {
	r := NewRing[string](3, nil)
	r.Push("a")
	r.Push("b")

	got := r.List()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Value)
	assert.Equal(t, "a", got[1].Value)
	assert.False(t, got[0].Timestamp.Before(got[1].Timestamp))
	assert.NotEqual(t, got[0].ID, got[1].ID)

	latest, ok := r.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.Value)
}

func TestEmptyRing(t *testing.T) {
	r := NewRing[int](0, nil)
	assert.Equal(t, DefaultCapacity, r.Capacity())
	assert.Empty(t, r.List())
	assert.NotNil(t, r.List())
	_, ok := r.Latest()
	assert.False(t, ok)
}

func TestValuesAreCopied(t *testing.T) {
	clone := func(s []string) []string { return append([]string{}, s...) }
	r := NewRing[[]string](2, clone)

	live := []string{"x"}
	r.Push(live)
	live[0] = "mutated"
	assert.Equal(t, "x", r.List()[0].Value[0])

	read := r.List()
	read[0].Value[0] = "mutated"
	assert.Equal(t, "x", r.List()[0].Value[0])
}

func TestConcurrentPushes(t *testing.T) {
	r := NewRing[int](10, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Push(n)
			_ = r.List()
		}(i)
	}
	wg.Wait()

	got := r.List()
	assert.Len(t, got, 10)
	seen := make(map[string]bool)
	for _, e := range got {
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}
