package spinlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/xkernel/internal/halt"
)

func TestLock_MutualExclusion(t *testing.T) {
	lock := New("counter")
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				lock.Lock()
				counter++
				lock.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, counter)
	assert.False(t, lock.Locked())
}

func TestLock_TryLock(t *testing.T) {
	var lock Lock
	assert.True(t, lock.TryLock())
	assert.False(t, lock.TryLock())
	lock.Unlock()
	assert.True(t, lock.TryLock())
	lock.Unlock()
}

func TestLock_UnlockUnheld(t *testing.T) {
	halt.SetHandler(func(halt.Info) {})
	lock := New("table")
	assert.Panics(t, func() { lock.Unlock() })
}
