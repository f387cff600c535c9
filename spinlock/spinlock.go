// Package spinlock provides the busy-wait mutual exclusion primitive guarding
// kernel tables. Critical sections are short and never block.
package spinlock

import (
	"runtime"
	"sync/atomic"

	"github.com/viant/xkernel/internal/halt"
)

// Lock is a test-and-set spinlock. The zero value is unlocked.
type Lock struct {
	state atomic.Uint32
	name  string
}

// New returns a named lock; the name appears in halt reports.
func New(name string) *Lock {
	return &Lock{name: name}
}

// Lock spins until the lock is acquired.
func (l *Lock) Lock() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

// TryLock acquires the lock without spinning.
func (l *Lock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Releasing an unheld lock halts the kernel.
func (l *Lock) Unlock() {
	if !l.state.CompareAndSwap(1, 0) {
		halt.Fatal("spinlock", "unlock of unlocked lock %q", l.name)
	}
}

// Locked reports whether the lock is currently held.
func (l *Lock) Locked() bool {
	return l.state.Load() == 1
}
