// Package semaphore implements counting semaphores whose waiters are
// released in strict FIFO order.
//
// Wait is re-entrant: a caller that has to wait is blocked in the scheduler
// and Wait returns model.ErrBlocked; the caller re-issues Wait after it is
// resumed, which then returns the outcome recorded by Signal or Delete.
package semaphore

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/xkernel/container/queue"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/spinlock"
)

// NoOwner marks an unowned semaphore.
const NoOwner = model.AnyPid

var (
	// ErrNotFound is returned for an unknown semaphore id.
	ErrNotFound = errors.New("semaphore: not found")
	// ErrDeleted is returned to waiters of a deleted semaphore.
	ErrDeleted = errors.New("semaphore: deleted while waiting")
)

// Scheduler is the subset of the scheduler used to park and resume waiters.
type Scheduler interface {
	Block(p *model.Descriptor, reason model.Reason) error
	Unblock(p *model.Descriptor) bool
}

// Resolver finds a descriptor by pid.
type Resolver interface {
	Lookup(pid model.Pid) (*model.Descriptor, bool)
}

type semaphore struct {
	id      int
	count   int
	owner   model.Pid
	mutex   bool
	waiters *queue.Queue[model.Pid]
}

type grant struct {
	id  int
	err error
}

// Service is the semaphore table.
type Service struct {
	lock     *spinlock.Lock
	sems     map[int]*semaphore
	nextID   int
	granted  map[model.Pid]grant
	sched    Scheduler
	resolver Resolver
	logger   zerolog.Logger
}

// Option configures the service.
type Option func(s *Service)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates an empty semaphore table.
func New(sched Scheduler, resolver Resolver, options ...Option) *Service {
	s := &Service{
		lock:     spinlock.New("semaphore"),
		sems:     make(map[int]*semaphore),
		granted:  make(map[model.Pid]grant),
		sched:    sched,
		resolver: resolver,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Create allocates a semaphore with counter n and no owner.
func (s *Service) Create(n int) int {
	return s.create(n, false)
}

// Mutex allocates a semaphore initialised to 1. When its owner is purged the
// mutex is handed to the next waiter.
func (s *Service) Mutex() int {
	return s.create(1, true)
}

func (s *Service) create(n int, mutex bool) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.nextID++
	s.sems[s.nextID] = &semaphore{
		id:      s.nextID,
		count:   n,
		owner:   NoOwner,
		mutex:   mutex,
		waiters: queue.Open[model.Pid](),
	}
	return s.nextID
}

// Delete frees the semaphore; every waiter is made ready and observes ErrDeleted.
func (s *Service) Delete(id int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	sem, ok := s.sems[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	delete(s.sems, id)
	for {
		pid, ok := sem.waiters.Get()
		if !ok {
			break
		}
		s.resumeLocked(pid, grant{id: id, err: ErrDeleted})
	}
	sem.waiters.Close()
	return nil
}

// Wait decrements the counter. When it goes negative p is queued and blocked,
// and Wait returns model.ErrBlocked.
func (s *Service) Wait(id int, p *model.Descriptor) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if g, ok := s.granted[p.Pid]; ok && g.id == id {
		delete(s.granted, p.Pid)
		return g.err
	}
	sem, ok := s.sems[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if sem.waiters.ApplyUntil(func(pid model.Pid) bool { return pid == p.Pid }) {
		return model.ErrBlocked
	}
	sem.count--
	if sem.count >= 0 {
		sem.owner = p.Pid
		return nil
	}
	sem.waiters.Put(p.Pid)
	if err := s.sched.Block(p, model.ReasonSemaphore); err != nil {
		sem.waiters.Remove(func(pid model.Pid) bool { return pid == p.Pid })
		sem.count++
		return err
	}
	return model.ErrBlocked
}

// Signal increments the counter and readies the oldest waiter, if any.
func (s *Service) Signal(id int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	sem, ok := s.sems[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.signalLocked(sem)
	return nil
}

func (s *Service) signalLocked(sem *semaphore) {
	sem.count++
	if pid, ok := sem.waiters.Get(); ok {
		sem.owner = pid
		s.resumeLocked(pid, grant{id: sem.id})
		return
	}
	sem.owner = NoOwner
}

// resumeLocked records the outcome for pid and unblocks it.
func (s *Service) resumeLocked(pid model.Pid, g grant) {
	s.granted[pid] = g
	p, ok := s.resolver.Lookup(pid)
	if !ok {
		delete(s.granted, pid)
		return
	}
	s.sched.Unblock(p)
}

// Count returns the counter of id.
func (s *Service) Count(id int) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sem, ok := s.sems[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return sem.count, nil
}

// Owner returns the last process that acquired id, or NoOwner.
func (s *Service) Owner(id int) (model.Pid, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sem, ok := s.sems[id]
	if !ok {
		return NoOwner, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return sem.owner, nil
}

// Waiters returns the queued pids of id, oldest first.
func (s *Service) Waiters(id int) []model.Pid {
	s.lock.Lock()
	defer s.lock.Unlock()
	sem, ok := s.sems[id]
	if !ok {
		return nil
	}
	return sem.waiters.Values()
}

// Purge forgets pid: it leaves every wait FIFO (restoring the counter) and
// gives up ownership. A permit granted to pid but not yet collected by Wait
// is signalled again, and a mutex held by pid passes to its next waiter.
func (s *Service) Purge(pid model.Pid) {
	s.lock.Lock()
	defer s.lock.Unlock()
	pending, hasPending := s.granted[pid]
	delete(s.granted, pid)
	for _, sem := range s.sems {
		for {
			if _, ok := sem.waiters.Remove(func(w model.Pid) bool { return w == pid }); !ok {
				break
			}
			sem.count++
		}
		if hasPending && pending.err == nil && pending.id == sem.id {
			s.logger.Debug().Int("sem", sem.id).Int32("pid", int32(pid)).Msg("uncollected permit returned")
			s.signalLocked(sem)
			continue
		}
		if sem.owner != pid {
			continue
		}
		if sem.mutex && sem.count < 1 {
			s.logger.Warn().Int("sem", sem.id).Int32("pid", int32(pid)).Msg("mutex owner purged")
			s.signalLocked(sem)
			continue
		}
		sem.owner = NoOwner
	}
}
