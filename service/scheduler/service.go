// Package scheduler manages the ready queue, the blocked queues and the
// per-core running slots. Selection is FIFO; an idle descriptor per core runs
// whenever the ready queue is empty, so Schedule always returns a process.
package scheduler

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/viant/xkernel/container/queue"
	"github.com/viant/xkernel/internal/halt"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/spinlock"
)

// MaxCores is the largest supported core count.
const MaxCores = 64

const component = "scheduler"

var (
	// ErrInvalidCore is returned for a core index outside the configured range.
	ErrInvalidCore = errors.New("scheduler: invalid core")
	// ErrZombie is returned when blocking a process that already exited.
	ErrZombie = errors.New("scheduler: process is a zombie")
)

// Service is the process scheduler.
type Service struct {
	lock     *spinlock.Lock
	cores    int
	ready    *queue.Queue[*model.Descriptor]
	blocked  map[model.Reason]*queue.Queue[*model.Descriptor]
	running  []*model.Descriptor
	last     []*model.Descriptor
	idle     []*model.Descriptor
	hooks    []hookEntry
	nextHook HookID
	ticks    atomic.Uint64
	logger   zerolog.Logger
}

// New builds empty ready and blocked structures and one idle descriptor per core.
func New(options ...Option) (*Service, error) {
	s := &Service{
		lock:    spinlock.New(component),
		cores:   1,
		blocked: make(map[model.Reason]*queue.Queue[*model.Descriptor]),
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.cores < 1 || s.cores > MaxCores {
		return nil, fmt.Errorf("scheduler: cores must be in [1, %d], got %d", MaxCores, s.cores)
	}
	s.ready = queue.Open[*model.Descriptor]()
	for _, reason := range model.Reasons {
		s.blocked[reason] = queue.Open[*model.Descriptor]()
	}
	s.running = make([]*model.Descriptor, s.cores)
	s.last = make([]*model.Descriptor, s.cores)
	s.idle = make([]*model.Descriptor, s.cores)
	for core := range s.idle {
		s.idle[core] = model.NewDescriptor(model.PidIdle, fmt.Sprintf("idle/%d", core), nil, model.PidKernel)
	}
	return s, nil
}

// Cores returns the configured core count.
func (s *Service) Cores() int { return s.cores }

// Ticks returns the number of timer ticks seen so far.
func (s *Service) Ticks() uint64 { return s.ticks.Load() }

// Add admits a new process into the ready queue.
func (s *Service) Add(p *model.Descriptor) {
	s.lock.Lock()
	if p.Link.Queue != model.QueueNone || p.Core >= 0 {
		s.lock.Unlock()
		halt.Fatal(component, "add of linked process %d", p.Pid)
	}
	p.State = model.StateReady
	p.Reason = model.ReasonNone
	s.enqueueReady(p)
	s.lock.Unlock()
	s.logger.Debug().Int32("pid", int32(p.Pid)).Str("name", p.Name).Msg("process added")
}

// Schedule switches the core to the next ready process, or to its idle
// process when none is ready. The outgoing process is requeued only if it is
// still runnable.
func (s *Service) Schedule(core int) (*model.Descriptor, error) {
	if core < 0 || core >= s.cores {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCore, core)
	}
	s.lock.Lock()
	prev := s.running[core]
	if prev != nil {
		prev.Core = -1
		switch {
		case prev.Pid == model.PidIdle && prev == s.idle[core]:
			prev.State = model.StateReady
		case prev.State == model.StateRunning:
			prev.State = model.StateReady
			s.enqueueReady(prev)
		case prev.State == model.StateReady:
			// resumed while still on the core
			s.enqueueReady(prev)
		}
	}
	s.last[core] = prev
	selection := Decision{Kind: KindSchedule, Core: core, Tick: s.ticks.Load()}
	if prev != nil {
		selection.Prev = prev.Pid
	}
	next, ok := s.nextLocked(selection)
	if ok {
		next.Link = model.Link{}
	} else {
		next = s.idle[core]
	}
	next.State = model.StateRunning
	next.Core = core
	s.running[core] = next
	hooks := s.hooksLocked()
	decision := selection
	decision.Next, decision.Idle = next.Pid, !ok
	s.lock.Unlock()
	notify(hooks, decision)
	return next, nil
}

// Tick handles a timer interrupt on core: hooks observe the tick, then the
// running process is preempted.
func (s *Service) Tick(core int) (*model.Descriptor, error) {
	if core < 0 || core >= s.cores {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCore, core)
	}
	tick := s.ticks.Add(1)
	s.lock.Lock()
	decision := Decision{Kind: KindTick, Core: core, Tick: tick}
	if current := s.running[core]; current != nil {
		decision.Prev = current.Pid
	}
	hooks := s.hooksLocked()
	s.lock.Unlock()
	notify(hooks, decision)
	return s.Schedule(core)
}

// Block moves p to the blocked queue for reason. A process blocked while on a
// core keeps the core until the next Schedule, which does not requeue it.
func (s *Service) Block(p *model.Descriptor, reason model.Reason) error {
	if reason == model.ReasonNone {
		return fmt.Errorf("scheduler: block of process %d without reason", p.Pid)
	}
	s.lock.Lock()
	switch p.State {
	case model.StateZombie:
		s.lock.Unlock()
		return fmt.Errorf("%w: %d", ErrZombie, p.Pid)
	case model.StateBlocked:
		s.lock.Unlock()
		halt.Fatal(component, "process %d blocked twice (%s, %s)", p.Pid, p.Reason, reason)
	}
	s.unlinkLocked(p)
	p.State = model.StateBlocked
	p.Reason = reason
	handle := s.blocked[reason].Put(p)
	p.Link = model.Link{Queue: model.QueueBlocked, Handle: handle}
	s.lock.Unlock()
	s.logger.Debug().Int32("pid", int32(p.Pid)).Str("reason", reason.String()).Msg("process blocked")
	return nil
}

// Unblock makes a blocked process READY. It reports false, and does nothing,
// when p is not blocked.
func (s *Service) Unblock(p *model.Descriptor) bool {
	s.lock.Lock()
	if p.State != model.StateBlocked {
		s.lock.Unlock()
		return false
	}
	reason := p.Reason
	s.unlinkLocked(p)
	p.State = model.StateReady
	p.Reason = model.ReasonNone
	if p.Core < 0 {
		s.enqueueReady(p)
	}
	s.lock.Unlock()
	s.logger.Debug().Int32("pid", int32(p.Pid)).Str("reason", reason.String()).Msg("process unblocked")
	return true
}

// Yield turns a running process READY; it is requeued when switched out.
func (s *Service) Yield(p *model.Descriptor) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if p.State != model.StateRunning || p.Pid == model.PidIdle {
		return false
	}
	p.State = model.StateReady
	return true
}

// Zombie removes p from every queue and records its exit status. It returns
// false, changing nothing, when p is already a zombie; exactly one caller
// wins the transition.
func (s *Service) Zombie(p *model.Descriptor, status int) bool {
	s.lock.Lock()
	if p.State == model.StateZombie {
		s.lock.Unlock()
		return false
	}
	s.unlinkLocked(p)
	p.State = model.StateZombie
	p.Reason = model.ReasonNone
	p.ExitStatus = status
	s.lock.Unlock()
	s.logger.Debug().Int32("pid", int32(p.Pid)).Int("status", status).Msg("process exited")
	return true
}

// Purge removes p from every scheduler structure. A process purged while on a
// core is marked a zombie so that the next Schedule drops it.
func (s *Service) Purge(p *model.Descriptor) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.unlinkLocked(p)
	if p.Core >= 0 && s.running[p.Core] == p {
		p.State = model.StateZombie
	}
	p.Reason = model.ReasonNone
	for core := range s.last {
		if s.last[core] == p {
			s.last[core] = nil
		}
	}
}

// GetLast returns the process that ran on core before the current one.
func (s *Service) GetLast(core int) *model.Descriptor {
	if core < 0 || core >= s.cores {
		return nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.last[core]
}

// Current returns the process running on core.
func (s *Service) Current(core int) *model.Descriptor {
	if core < 0 || core >= s.cores {
		return nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.running[core]
}

// StateOf returns p's state and blocking reason.
func (s *Service) StateOf(p *model.Descriptor) (model.State, model.Reason) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return p.State, p.Reason
}

// IsZombie reports whether p has exited.
func (s *Service) IsZombie(p *model.Descriptor) bool {
	state, _ := s.StateOf(p)
	return state == model.StateZombie
}

func (s *Service) enqueueReady(p *model.Descriptor) {
	handle := s.ready.Put(p)
	p.Link = model.Link{Queue: model.QueueReady, Handle: handle}
}

// unlinkLocked detaches p from whichever queue it is linked into.
func (s *Service) unlinkLocked(p *model.Descriptor) {
	var q *queue.Queue[*model.Descriptor]
	switch p.Link.Queue {
	case model.QueueNone:
		return
	case model.QueueReady:
		q = s.ready
	case model.QueueBlocked:
		q = s.blocked[p.Reason]
	}
	if q == nil {
		halt.Fatal(component, "process %d linked into unknown queue", p.Pid)
	}
	v, ok := q.Unlink(p.Link.Handle)
	if !ok || v != p {
		halt.Fatal(component, "process %d missing from its %v queue", p.Pid, p.Link.Queue)
	}
	p.Link = model.Link{}
}
