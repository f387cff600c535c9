// Package queue provides the FIFO container that holds process descriptors
// and pending messages.
//
// Elements live in an arena of nodes linked by index, so a Handle returned by
// Put stays cheap to keep (for O(1) Unlink) and can never dangle: every node
// carries a generation that is bumped when the node is recycled, and a stale
// handle simply reports not-found.
//
// A Queue is not safe for concurrent use; callers guard it with their own lock.
package queue

import (
	"github.com/viant/xkernel/internal/halt"
)

const (
	component       = "queue"
	nilIndex  int32 = -1
)

// Handle identifies an element linked into a Queue.
type Handle struct {
	index int32
	gen   uint32
}

// Valid reports whether h was issued by Put (it may still be stale).
func (h Handle) Valid() bool { return h.gen != 0 }

type node[T any] struct {
	value  T
	prev   int32
	next   int32
	gen    uint32
	linked bool
}

// Queue is a FIFO of opaque elements.
type Queue[T any] struct {
	nodes      []node[T]
	head       int32
	tail       int32
	free       int32
	size       int
	release    func(T)
	closed     bool
	inspecting int
}

// Option customises a Queue.
type Option[T any] func(q *Queue[T])

// WithRelease makes the queue own its elements: Close passes every element
// still linked to fn. Without it the queue only borrows elements.
func WithRelease[T any](fn func(T)) Option[T] {
	return func(q *Queue[T]) { q.release = fn }
}

// WithCapacity preallocates room for n elements.
func WithCapacity[T any](n int) Option[T] {
	return func(q *Queue[T]) {
		if n > 0 {
			q.nodes = make([]node[T], 0, n)
		}
	}
}

// Open creates an empty queue.
func Open[T any](options ...Option[T]) *Queue[T] {
	q := &Queue[T]{head: nilIndex, tail: nilIndex, free: nilIndex}
	for _, opt := range options {
		opt(q)
	}
	return q
}

// Close deallocates the queue. Owning queues release every remaining element.
func (q *Queue[T]) Close() {
	q.checkMutable()
	if q.release != nil {
		q.walk(func(idx int32) bool {
			q.release(q.nodes[idx].value)
			return true
		})
	}
	q.nodes = nil
	q.head, q.tail, q.free = nilIndex, nilIndex, nilIndex
	q.size = 0
	q.closed = true
}

// Len returns the number of linked elements.
func (q *Queue[T]) Len() int { return q.size }

// Put appends v at the tail.
func (q *Queue[T]) Put(v T) Handle {
	q.checkMutable()
	idx := q.alloc()
	n := &q.nodes[idx]
	n.value = v
	n.linked = true
	n.next = nilIndex
	n.prev = q.tail
	if q.tail == nilIndex {
		q.head = idx
	} else {
		q.nodes[q.tail].next = idx
	}
	q.tail = idx
	q.size++
	return Handle{index: idx, gen: n.gen}
}

// Get removes and returns the head element; ok is false when the queue is empty.
func (q *Queue[T]) Get() (v T, ok bool) {
	q.checkMutable()
	if q.head == nilIndex {
		return v, false
	}
	return q.unlink(q.head), true
}

// Peek returns the head element without removing it.
func (q *Queue[T]) Peek() (v T, ok bool) {
	q.checkOpen()
	if q.head == nilIndex {
		return v, false
	}
	return q.nodes[q.head].value, true
}

// Apply visits every element in FIFO order.
func (q *Queue[T]) Apply(fn func(T)) {
	q.inspect(func(idx int32) bool {
		fn(q.nodes[idx].value)
		return true
	})
}

// ApplyWith visits every element passing arg along, e.g. an accumulator.
func ApplyWith[T, A any](q *Queue[T], fn func(T, A), arg A) {
	q.inspect(func(idx int32) bool {
		fn(q.nodes[idx].value, arg)
		return true
	})
}

// ApplyUntil visits elements until fn returns true; it reports whether it stopped early.
func (q *Queue[T]) ApplyUntil(fn func(T) bool) bool {
	stopped := false
	q.inspect(func(idx int32) bool {
		if fn(q.nodes[idx].value) {
			stopped = true
			return false
		}
		return true
	})
	return stopped
}

// Search returns the first element matching pred without removing it.
func (q *Queue[T]) Search(pred func(T) bool) (v T, ok bool) {
	idx := q.find(pred)
	if idx == nilIndex {
		return v, false
	}
	return q.nodes[idx].value, true
}

// Remove unlinks and returns the first element matching pred.
func (q *Queue[T]) Remove(pred func(T) bool) (v T, ok bool) {
	q.checkMutable()
	idx := q.find(pred)
	if idx == nilIndex {
		return v, false
	}
	return q.unlink(idx), true
}

// Contains reports whether h still refers to a linked element of q.
func (q *Queue[T]) Contains(h Handle) bool {
	q.checkOpen()
	return q.valid(h)
}

// Unlink removes the element referenced by h. Stale handles report not-found.
func (q *Queue[T]) Unlink(h Handle) (v T, ok bool) {
	q.checkMutable()
	if !q.valid(h) {
		return v, false
	}
	return q.unlink(h.index), true
}

// Concat moves every element of other onto the tail of q, in order, and
// deallocates other's container without releasing the elements. Handles
// issued by other are invalidated.
func (q *Queue[T]) Concat(other *Queue[T]) {
	if other == q {
		halt.Fatal(component, "concat with itself")
	}
	q.checkMutable()
	other.checkMutable()
	other.walk(func(idx int32) bool {
		q.Put(other.nodes[idx].value)
		return true
	})
	other.release = nil
	other.Close()
}

// Values returns a copy of the elements in FIFO order.
func (q *Queue[T]) Values() []T {
	out := make([]T, 0, q.size)
	q.Apply(func(v T) { out = append(out, v) })
	return out
}

func (q *Queue[T]) valid(h Handle) bool {
	if h.gen == 0 || h.index < 0 || int(h.index) >= len(q.nodes) {
		return false
	}
	n := &q.nodes[h.index]
	return n.linked && n.gen == h.gen
}

func (q *Queue[T]) find(pred func(T) bool) int32 {
	found := nilIndex
	q.inspect(func(idx int32) bool {
		if pred(q.nodes[idx].value) {
			found = idx
			return false
		}
		return true
	})
	return found
}

func (q *Queue[T]) inspect(fn func(idx int32) bool) {
	q.checkOpen()
	q.inspecting++
	defer func() { q.inspecting-- }()
	q.walk(fn)
}

// walk traverses links from head, verifying back links and length.
func (q *Queue[T]) walk(fn func(idx int32) bool) {
	prev := nilIndex
	count := 0
	for idx := q.head; idx != nilIndex; {
		if int(idx) >= len(q.nodes) {
			halt.Fatal(component, "index %d out of range", idx)
		}
		n := &q.nodes[idx]
		if !n.linked || n.prev != prev {
			halt.Fatal(component, "inconsistent links at node %d", idx)
		}
		count++
		if count > q.size {
			halt.Fatal(component, "cycle detected: %d nodes for size %d", count, q.size)
		}
		next := n.next
		if !fn(idx) {
			return
		}
		prev = idx
		idx = next
	}
	if count != q.size || prev != q.tail {
		halt.Fatal(component, "length mismatch: walked %d, size %d", count, q.size)
	}
}

func (q *Queue[T]) alloc() int32 {
	if q.free != nilIndex {
		idx := q.free
		q.free = q.nodes[idx].next
		return idx
	}
	q.nodes = append(q.nodes, node[T]{gen: 1})
	return int32(len(q.nodes) - 1)
}

func (q *Queue[T]) unlink(idx int32) T {
	n := &q.nodes[idx]
	if !n.linked {
		halt.Fatal(component, "unlink of free node %d", idx)
	}
	if n.prev == nilIndex {
		q.head = n.next
	} else {
		q.nodes[n.prev].next = n.next
	}
	if n.next == nilIndex {
		q.tail = n.prev
	} else {
		q.nodes[n.next].prev = n.prev
	}
	v := n.value
	var zero T
	n.value = zero
	n.linked = false
	n.prev = nilIndex
	n.gen++
	if n.gen == 0 {
		n.gen = 1
	}
	n.next = q.free
	q.free = idx
	q.size--
	return v
}

func (q *Queue[T]) checkOpen() {
	if q.closed {
		halt.Fatal(component, "use after close")
	}
}

func (q *Queue[T]) checkMutable() {
	q.checkOpen()
	if q.inspecting > 0 {
		halt.Fatal(component, "mutation during inspection")
	}
}
