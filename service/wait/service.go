// Package wait tracks parent/child relations, delivers exit statuses to
// waiting parents and reaps zombies once their status has been collected.
//
// Wait is re-entrant in the same way as ipc.Recv: when no zombie child is
// available the waiter is parked and model.ErrBlocked is returned; the
// exit that satisfies it records the result, which the re-issued Wait returns.
package wait

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/xkernel/container/hashtable"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/spinlock"
)

// DefaultBuckets is the default relation table bucket count.
const DefaultBuckets = 64

// Scheduler is the subset of the scheduler used by wait/reap.
type Scheduler interface {
	Block(p *model.Descriptor, reason model.Reason) error
	Unblock(p *model.Descriptor) bool
	Zombie(p *model.Descriptor, status int) bool
	Purge(p *model.Descriptor)
	IsZombie(p *model.Descriptor) bool
}

// Reaper finalises a reaped process, e.g. removing it from the process table.
type Reaper func(p *model.Descriptor)

type relation struct {
	parent model.Pid
	child  *model.Descriptor
}

type waiter struct {
	pid      model.Pid
	desc     *model.Descriptor
	target   model.Pid
	options  model.WaitOption
	callback model.WaitCallback
	arg      interface{}
	done     bool
	info     model.ExitInfo
	err      error
}

// delivery is a callback to run once the wait lock is released.
type delivery struct {
	callback model.WaitCallback
	info     model.ExitInfo
	arg      interface{}
}

// Service is the wait/reap subsystem.
type Service struct {
	lock     *spinlock.Lock
	children *hashtable.Table[*relation]
	waiters  *hashtable.Table[*waiter]
	sched    Scheduler
	reaper   Reaper
	buckets  int
	logger   zerolog.Logger
}

// Option configures the service.
type Option func(s *Service)

// WithBuckets sets the relation table bucket count.
func WithBuckets(buckets int) Option {
	return func(s *Service) {
		if buckets > 0 {
			s.buckets = buckets
		}
	}
}

// WithReaper sets the function finalising reaped processes.
func WithReaper(reaper Reaper) Option {
	return func(s *Service) { s.reaper = reaper }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New allocates the relation table.
func New(sched Scheduler, options ...Option) *Service {
	s := &Service{
		lock:    spinlock.New("wait"),
		sched:   sched,
		buckets: DefaultBuckets,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.children = hashtable.Open[*relation](s.buckets)
	s.waiters = hashtable.Open[*waiter](s.buckets)
	return s
}

// New records child as a child of parent.
func (s *Service) New(child *model.Descriptor, parent model.Pid) {
	s.lock.Lock()
	defer s.lock.Unlock()
	child.Parent = parent
	s.children.Put(parent.Key(), &relation{parent: parent, child: child})
}

// Parent returns the recorded parent of p.
func (s *Service) Parent(p *model.Descriptor) model.Pid {
	s.lock.Lock()
	defer s.lock.Unlock()
	return p.Parent
}

// Children returns the pids of parent's unreaped children.
func (s *Service) Children(parent model.Pid) []model.Pid {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.childrenLocked(parent)
}

func (s *Service) childrenLocked(parent model.Pid) []model.Pid {
	var ret []model.Pid
	s.children.Apply(func(r *relation) {
		if r.parent == parent {
			ret = append(ret, r.child.Pid)
		}
	})
	return ret
}

// Wait collects the exit status of target (or any child when AnyPid) on
// behalf of p. The callback, if set, receives the status exactly once.
func (s *Service) Wait(p *model.Descriptor, target model.Pid, options model.WaitOption, callback model.WaitCallback, arg interface{}) (model.ExitInfo, error) {
	key := p.Pid.Key()
	s.lock.Lock()
	if w, ok := s.waiters.Remove(func(w *waiter) bool { return w.pid == p.Pid && w.done }, key); ok {
		s.lock.Unlock()
		return w.info, w.err
	}
	if _, ok := s.waiters.Search(func(w *waiter) bool { return w.pid == p.Pid }, key); ok {
		s.lock.Unlock()
		return model.ExitInfo{}, model.ErrBlocked
	}

	var rel *relation
	if target == model.AnyPid {
		if len(s.childrenLocked(p.Pid)) == 0 {
			s.lock.Unlock()
			return model.ExitInfo{}, fmt.Errorf("%w: process %d has no children", model.ErrInvalidTarget, p.Pid)
		}
		rel, _ = s.children.Search(func(r *relation) bool { return r.parent == p.Pid && s.sched.IsZombie(r.child) }, key)
	} else {
		found, ok := s.children.Search(func(r *relation) bool { return r.parent == p.Pid && r.child.Pid == target }, key)
		if !ok {
			s.lock.Unlock()
			return model.ExitInfo{}, fmt.Errorf("%w: %d is not a child of %d", model.ErrInvalidTarget, target, p.Pid)
		}
		if s.sched.IsZombie(found.child) {
			rel = found
		}
	}

	if rel != nil {
		info := s.collectLocked(rel)
		s.lock.Unlock()
		s.reap(rel.child)
		if callback != nil {
			callback(info, arg)
		}
		return info, nil
	}
	if options.Has(model.WaitNoHang) {
		s.lock.Unlock()
		return model.ExitInfo{}, model.ErrWouldBlock
	}
	if err := s.sched.Block(p, model.ReasonWait); err != nil {
		s.lock.Unlock()
		return model.ExitInfo{}, err
	}
	s.waiters.Put(key, &waiter{pid: p.Pid, desc: p, target: target, options: options, callback: callback, arg: arg})
	s.lock.Unlock()
	return model.ExitInfo{}, model.ErrBlocked
}

// Exit turns p into a zombie with status, or keeps the status already
// recorded when the caller made p a zombie first. A parent already waiting
// for it is readied and handed the status; otherwise the zombie is kept until
// a Wait collects it. Children of p are re-parented to the kernel, and p itself is
// reaped at once when its parent is the kernel.
func (s *Service) Exit(p *model.Descriptor, status int) {
	if !s.sched.Zombie(p, status) {
		status = p.ExitStatus
	}
	info := model.ExitInfo{Pid: p.Pid, Status: status}

	s.lock.Lock()
	reaped := s.orphanLocked(p.Pid)
	s.waiters.RemoveWhere(func(w *waiter) bool { return w.pid == p.Pid })

	var deliveries []delivery
	parent := p.Parent
	if parent == model.PidKernel {
		s.children.Remove(func(r *relation) bool { return r.child == p }, parent.Key())
		reaped = append(reaped, p)
	} else if w, ok := s.waiters.Search(func(w *waiter) bool {
		return w.pid == parent && !w.done && (w.target == model.AnyPid || w.target == p.Pid)
	}, parent.Key()); ok {
		s.children.Remove(func(r *relation) bool { return r.child == p }, parent.Key())
		w.done = true
		w.info = info
		s.sched.Unblock(w.desc)
		reaped = append(reaped, p)
		if w.callback != nil {
			deliveries = append(deliveries, delivery{callback: w.callback, info: info, arg: w.arg})
		}
	}
	s.lock.Unlock()

	for _, d := range deliveries {
		d.callback(d.info, d.arg)
	}
	for _, child := range reaped {
		s.reap(child)
	}
	s.logger.Debug().Int32("pid", int32(p.Pid)).Int32("parent", int32(parent)).Int("status", status).Msg("exit")
}

// orphanLocked re-parents the live children of pid to the kernel and returns
// its zombie children, whose relations are dropped for reaping.
func (s *Service) orphanLocked(pid model.Pid) []*model.Descriptor {
	var zombies []*model.Descriptor
	for {
		rel, ok := s.children.Remove(func(r *relation) bool { return r.parent == pid }, pid.Key())
		if !ok {
			break
		}
		if s.sched.IsZombie(rel.child) {
			zombies = append(zombies, rel.child)
			continue
		}
		rel.parent = model.PidKernel
		rel.child.Parent = model.PidKernel
		s.children.Put(model.PidKernel.Key(), rel)
	}
	return zombies
}

// Assume transfers the identity of old to replacement: replacement leaves
// its own parent, takes old's place as a child of old's parent, adopts old's
// children, and waits targeting old now target replacement.
func (s *Service) Assume(old, replacement *model.Descriptor) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if rel, ok := s.children.Search(func(r *relation) bool { return r.child == old }, old.Parent.Key()); ok {
		s.children.Remove(func(r *relation) bool { return r.child == replacement }, replacement.Parent.Key())
		rel.child = replacement
		replacement.Parent = old.Parent
	}
	for {
		rel, ok := s.children.Remove(func(r *relation) bool { return r.parent == old.Pid }, old.Pid.Key())
		if !ok {
			break
		}
		rel.parent = replacement.Pid
		rel.child.Parent = replacement.Pid
		s.children.Put(replacement.Pid.Key(), rel)
	}
	s.waiters.Apply(func(w *waiter) {
		if w.target == old.Pid {
			w.target = replacement.Pid
		}
	})
}

// ReapProc releases a zombie whose status has been collected. It fails for
// a process that has not exited.
func (s *Service) ReapProc(p *model.Descriptor) error {
	if !s.sched.IsZombie(p) {
		return fmt.Errorf("%w: process %d has not exited", model.ErrInvalidArgument, p.Pid)
	}
	s.lock.Lock()
	_, ok := s.children.Remove(func(r *relation) bool { return r.child == p }, p.Parent.Key())
	s.lock.Unlock()
	if !ok {
		return fmt.Errorf("%w: process %d already reaped", model.ErrInvalidTarget, p.Pid)
	}
	s.reap(p)
	return nil
}

// Purge forgets pid after it was destroyed without exiting: its own pending
// wait is dropped, its children are re-parented, and a parent waiting for it
// is readied with model.ErrPeerDead.
func (s *Service) Purge(p *model.Descriptor) {
	s.lock.Lock()
	reaped := s.orphanLocked(p.Pid)
	s.waiters.RemoveWhere(func(w *waiter) bool { return w.pid == p.Pid })
	parent := p.Parent
	s.children.Remove(func(r *relation) bool { return r.child == p }, parent.Key())
	remaining := len(s.childrenLocked(parent))
	s.waiters.Apply(func(w *waiter) {
		if w.pid != parent || w.done {
			return
		}
		if w.target == p.Pid || (w.target == model.AnyPid && remaining == 0) {
			w.done = true
			w.err = fmt.Errorf("%w: child %d", model.ErrPeerDead, p.Pid)
			s.sched.Unblock(w.desc)
		}
	})
	s.lock.Unlock()
	for _, child := range reaped {
		s.reap(child)
	}
}

func (s *Service) collectLocked(rel *relation) model.ExitInfo {
	s.children.Remove(func(r *relation) bool { return r == rel }, rel.parent.Key())
	return model.ExitInfo{Pid: rel.child.Pid, Status: rel.child.ExitStatus}
}

func (s *Service) reap(p *model.Descriptor) {
	s.sched.Purge(p)
	if s.reaper != nil {
		s.reaper(p)
	}
}
