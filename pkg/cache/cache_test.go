package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertAndRetrieve(t *testing.T) {
	c := NewCache[string]("test", 10)

	require.NoError(t, c.Insert("a", "value-a", 1))
	require.NoError(t, c.Insert("b", "value-b", 2))

	actual, ok := c.Retrieve("a")
	require.True(t, ok)
	assert.Equal(t, "value-a", actual)

	_, ok = c.Retrieve("missing")
	assert.False(t, ok)

	assert.Equal(t, 3, c.GetWeight())
	assert.Equal(t, 10, c.GetBudget())
	assert.Equal(t, 2, c.Len())
}

func TestCache_InsertValidation(t *testing.T) {
	c := NewCache[int]("test", 2)

	require.NoError(t, c.Insert("a", 1, 1))
	assert.Equal(t, ErrKeyExists, c.Insert("a", 2, 1))
	assert.Equal(t, ErrNonPositiveCost, c.Insert("b", 1, 0))
	assert.Equal(t, ErrExceedsBudget, c.Insert("c", 1, 3))

	actual, ok := c.Retrieve("a")
	require.True(t, ok)
	assert.Equal(t, 1, actual)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache[string]("test", 3)
	c.SetVerbose(true)

	require.NoError(t, c.Insert("a", "a", 1))
	require.NoError(t, c.Insert("b", "b", 1))
	require.NoError(t, c.Insert("c", "c", 1))

	// Touch a so that b becomes the eviction candidate
	_, ok := c.Retrieve("a")
	require.True(t, ok)

	require.NoError(t, c.Insert("d", "d", 1))

	_, ok = c.Retrieve("b")
	assert.False(t, ok)
	for _, key := range []string{"a", "c", "d"} {
		_, ok = c.Retrieve(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, 3, c.GetWeight())

	// A heavy entry evicts as many entries as needed
	require.NoError(t, c.Insert("e", "e", 3))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 3, c.GetWeight())
	_, ok = c.Retrieve("e")
	assert.True(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache[string]("test", 5)
	require.NoError(t, c.Insert("a", "a", 1))
	require.NoError(t, c.Insert("b", "b", 1))

	c.Clear()

	assert.Equal(t, 0, c.GetWeight())
	assert.Equal(t, 0, c.Len())
	_, ok := c.Retrieve("a")
	assert.False(t, ok)

	require.NoError(t, c.Insert("a", "a", 1))
}

func TestCache_Concurrency(t *testing.T) {
	c := NewCache[int]("test", 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key%d", (worker*100+j)%75)
				c.Insert(key, j, 1)
				c.Retrieve(key)
			}
		}(i)
	}
	wg.Wait()

	assert.True(t, c.GetWeight() <= c.GetBudget())
	assert.Equal(t, c.GetWeight(), c.Len())
}
