package main

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionOpensOnce(t *testing.T) {
	var c connection[int]
	_, ok := c.get()
	assert.False(t, ok)
	assert.False(t, c.isTarget(""))

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := c.open("sender-a", func() (int, error) {
				created.Add(1)
				return i + 1, nil
			})
			assert.NoError(t, err)
		}(i)
		// Readers race with the writers, as the main goroutine does with
		// signaling callbacks.
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.get()
			c.isTarget("sender-a")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	p, ok := c.get()
	require.True(t, ok)
	assert.NotZero(t, p)
	assert.True(t, c.isTarget("sender-a"))
	assert.False(t, c.isTarget("sender-b"))
}

func TestConnectionOpenFailureLeavesEmpty(t *testing.T) {
	var c connection[int]
	boom := errors.New("boom")
	_, opened, err := c.open("sender-a", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, opened)
	_, ok := c.get()
	assert.False(t, ok)

	p, opened, err := c.open("sender-b", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.True(t, opened)
	assert.Equal(t, 7, p)
	assert.True(t, c.isTarget("sender-b"))
}
