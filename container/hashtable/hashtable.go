// Package hashtable provides an open hash table with a fixed bucket count,
// each bucket chaining its entries in a queue.Queue.
package hashtable

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"

	"github.com/viant/xkernel/container/queue"
)

// HashFunc maps a key to a bucket selector.
type HashFunc func(key []byte) uint32

type entry[T any] struct {
	key   []byte
	value T
}

// Table is a hash table of elements keyed by byte strings. Entries sharing a
// key are kept in insertion order and disambiguated with a predicate.
//
// A Table is not safe for concurrent use.
type Table[T any] struct {
	buckets []*queue.Queue[entry[T]]
	hash    HashFunc
	size    int
}

// Option customises a Table.
type Option func(o *options)

type options struct {
	hash HashFunc
}

// WithHash overrides the default FNV-1a hash.
func WithHash(fn HashFunc) Option {
	return func(o *options) { o.hash = fn }
}

// Open creates a table with size buckets (at least one).
func Open[T any](size int, opts ...Option) *Table[T] {
	if size < 1 {
		size = 1
	}
	o := &options{hash: Hash}
	for _, opt := range opts {
		opt(o)
	}
	t := &Table[T]{buckets: make([]*queue.Queue[entry[T]], size), hash: o.hash}
	for i := range t.buckets {
		t.buckets[i] = queue.Open[entry[T]]()
	}
	return t
}

// Hash is the FNV-1a hash of key.
func Hash(key []byte) uint32 {
	h := fnv.New32a()
	_, _ = h.Write(key)
	return h.Sum32()
}

// Key32 encodes v as a 4-byte little-endian key.
func Key32(v int32) []byte {
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, uint32(v))
	return key
}

// Close deallocates buckets; elements are not released.
func (t *Table[T]) Close() {
	for _, b := range t.buckets {
		b.Close()
	}
	t.size = 0
}

// Len returns the number of entries.
func (t *Table[T]) Len() int { return t.size }

// Buckets returns the bucket count.
func (t *Table[T]) Buckets() int { return len(t.buckets) }

// Put inserts v under a private copy of key.
func (t *Table[T]) Put(key []byte, v T) {
	k := make([]byte, len(key))
	copy(k, key)
	t.bucket(key).Put(entry[T]{key: k, value: v})
	t.size++
}

// Search returns the first element stored under key that matches pred (nil matches any).
func (t *Table[T]) Search(pred func(T) bool, key []byte) (v T, ok bool) {
	e, ok := t.bucket(key).Search(matcher(pred, key))
	return e.value, ok
}

// Remove unlinks and returns the first element stored under key that matches pred.
func (t *Table[T]) Remove(pred func(T) bool, key []byte) (v T, ok bool) {
	e, ok := t.bucket(key).Remove(matcher(pred, key))
	if ok {
		t.size--
	}
	return e.value, ok
}

// Apply visits every element, bucket by bucket.
func (t *Table[T]) Apply(fn func(T)) {
	for _, b := range t.buckets {
		b.Apply(func(e entry[T]) { fn(e.value) })
	}
}

// ApplyWith visits every element passing arg along.
func ApplyWith[T, A any](t *Table[T], fn func(T, A), arg A) {
	t.Apply(func(v T) { fn(v, arg) })
}

// RemoveWhere unlinks every element matching pred regardless of key and
// returns how many were removed.
func (t *Table[T]) RemoveWhere(pred func(T) bool) int {
	removed := 0
	for _, b := range t.buckets {
		for {
			if _, ok := b.Remove(func(e entry[T]) bool { return pred(e.value) }); !ok {
				break
			}
			removed++
		}
	}
	t.size -= removed
	return removed
}

func (t *Table[T]) bucket(key []byte) *queue.Queue[entry[T]] {
	return t.buckets[t.hash(key)%uint32(len(t.buckets))]
}

func matcher[T any](pred func(T) bool, key []byte) func(entry[T]) bool {
	return func(e entry[T]) bool {
		if !bytes.Equal(e.key, key) {
			return false
		}
		return pred == nil || pred(e.value)
	}
}
