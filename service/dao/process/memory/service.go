// Package memory provides the kernel process table, indexed by pid in an
// open hash table.
package memory

import (
	"context"
	"strconv"

	"github.com/viant/xkernel/container/hashtable"
	"github.com/viant/xkernel/internal/idgen"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao"
	"github.com/viant/xkernel/service/dao/criteria"
	"github.com/viant/xkernel/spinlock"
)

// DefaultBuckets is the default hash bucket count.
const DefaultBuckets = 64

// Service is a process table safe for concurrent use.
type Service struct {
	lock    *spinlock.Lock
	table   *hashtable.Table[*model.Descriptor]
	pids    *idgen.Pids
	stateOf func(p *model.Descriptor) model.State
	buckets int
}

var _ dao.Service[model.Pid, model.Descriptor] = (*Service)(nil)

// Option configures the process table.
type Option func(s *Service)

// WithBuckets sets the hash bucket count.
func WithBuckets(buckets int) Option {
	return func(s *Service) {
		if buckets > 0 {
			s.buckets = buckets
		}
	}
}

// WithStateReader sets how List reads a descriptor's state, typically
// through the scheduler lock.
func WithStateReader(fn func(p *model.Descriptor) model.State) Option {
	return func(s *Service) {
		s.stateOf = fn
	}
}

// New creates an empty process table.
func New(options ...Option) *Service {
	s := &Service{
		lock:    spinlock.New("ptable"),
		pids:    idgen.NewPids(int32(model.MaxPid)),
		buckets: DefaultBuckets,
		stateOf: func(p *model.Descriptor) model.State { return p.State },
	}
	for _, opt := range options {
		opt(s)
	}
	s.table = hashtable.Open[*model.Descriptor](s.buckets)
	return s
}

// NextPid allocates a free user pid; it is released by Delete.
func (s *Service) NextPid() (model.Pid, error) {
	pid, err := s.pids.Alloc()
	if err != nil {
		return 0, model.ErrNoMemory
	}
	return model.Pid(pid), nil
}

// Save inserts or replaces the descriptor stored under p.Pid.
func (s *Service) Save(_ context.Context, p *model.Descriptor) error {
	if p == nil {
		return dao.ErrNilEntity
	}
	if p.Pid == model.AnyPid {
		return dao.ErrInvalidID
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.table.Remove(nil, p.Pid.Key())
	s.table.Put(p.Pid.Key(), p)
	return nil
}

// Insert stores p only when its pid is free.
func (s *Service) Insert(_ context.Context, p *model.Descriptor) error {
	if p == nil {
		return dao.ErrNilEntity
	}
	if p.Pid == model.AnyPid {
		return dao.ErrInvalidID
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.table.Search(nil, p.Pid.Key()); ok {
		return dao.ErrExists
	}
	s.table.Put(p.Pid.Key(), p)
	return nil
}

// Load returns the descriptor of pid.
func (s *Service) Load(_ context.Context, pid model.Pid) (*model.Descriptor, error) {
	if pid == model.AnyPid {
		return nil, dao.ErrInvalidID
	}
	p, ok := s.Lookup(pid)
	if !ok {
		return nil, dao.ErrNotFound
	}
	return p, nil
}

// Lookup returns the descriptor of pid.
func (s *Service) Lookup(pid model.Pid) (*model.Descriptor, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.table.Search(nil, pid.Key())
}

// Delete removes pid and releases it for reuse.
func (s *Service) Delete(_ context.Context, pid model.Pid) error {
	if pid == model.AnyPid {
		return dao.ErrInvalidID
	}
	s.lock.Lock()
	_, ok := s.table.Remove(nil, pid.Key())
	s.lock.Unlock()
	if !ok {
		return dao.ErrNotFound
	}
	if pid > 0 {
		s.pids.Release(int32(pid))
	}
	return nil
}

// Len returns the number of stored descriptors.
func (s *Service) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.table.Len()
}

// List returns descriptors matching the State, Name and Parent filters.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*model.Descriptor, error) {
	s.lock.Lock()
	var all []*model.Descriptor
	hashtable.ApplyWith(s.table, func(p *model.Descriptor, acc *[]*model.Descriptor) {
		*acc = append(*acc, p)
	}, &all)
	s.lock.Unlock()

	out := make([]*model.Descriptor, 0, len(all))
	for _, p := range all {
		if !criteria.FilterByName(p.Name, parameters) {
			continue
		}
		if !criteria.FilterByParent(strconv.Itoa(int(p.Parent)), parameters) {
			continue
		}
		if !criteria.FilterByState(s.stateOf(p).String(), parameters) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
