package idgen

import (
	"errors"
	"sync"
)

// ErrPidExhausted is returned when every pid in the allocator range is in use.
var ErrPidExhausted = errors.New("idgen: pid space exhausted")

// Pids hands out positive process ids in [1, max], wrapping around and
// skipping ids still in use. Zero is never issued.
type Pids struct {
	mu    sync.Mutex
	next  int32
	max   int32
	inUse map[int32]struct{}
}

// NewPids creates an allocator over [1, max].
func NewPids(max int32) *Pids {
	if max < 1 {
		max = 1
	}
	return &Pids{next: 1, max: max, inUse: make(map[int32]struct{})}
}

// Alloc returns the next free pid.
func (a *Pids) Alloc() (int32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int32(len(a.inUse)) >= a.max {
		return 0, ErrPidExhausted
	}
	for {
		p := a.next
		a.next++
		if a.next > a.max {
			a.next = 1
		}
		if _, used := a.inUse[p]; used {
			continue
		}
		a.inUse[p] = struct{}{}
		return p, nil
	}
}

// Release returns pid to the free pool. Unknown pids are ignored.
func (a *Pids) Release(pid int32) {
	a.mu.Lock()
	delete(a.inUse, pid)
	a.mu.Unlock()
}

// InUse reports whether pid is currently allocated.
func (a *Pids) InUse(pid int32) bool {
	a.mu.Lock()
	_, ok := a.inUse[pid]
	a.mu.Unlock()
	return ok
}
