package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerOnlyLastCallFires(t *testing.T) {
	deb := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var got []int
	for i := 1; i <= 5; i++ {
		i := i
		deb.Do(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0])
}

func TestDebouncerStopCancelsPendingRun(t *testing.T) {
	deb := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	fired := false
	deb.Do(func() {
		mu.Lock()
		fired = true
		mu.Unlock()
	})
	deb.Stop()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, fired)
}

func TestSearchBoxAppliesSettledTerm(t *testing.T) {
	var mu sync.Mutex
	var applied []string
	box := NewSearchBox(30*time.Millisecond, func(term string) {
		mu.Lock()
		applied = append(applied, term)
		mu.Unlock()
	})
	defer box.Stop()

	for _, term := range []string{"s", "sh", "sho", "shoe", "shoes"} {
		box.SetTerm(term)
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, applied, 1)
	assert.Equal(t, "shoes", applied[0])
}

func TestSearchBoxSeparateBurstsEachFire(t *testing.T) {
	var mu sync.Mutex
	var applied []string
	box := NewSearchBox(20*time.Millisecond, func(term string) {
		mu.Lock()
		applied = append(applied, term)
		mu.Unlock()
	})
	defer box.Stop()

	box.SetTerm("shoes")
	time.Sleep(60 * time.Millisecond)
	box.SetTerm("hats")
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"shoes", "hats"}, applied)
}
