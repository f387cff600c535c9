package scheduler

import "github.com/viant/xkernel/model"

// Kind distinguishes the scheduling events reported to hooks.
type Kind int

const (
	KindTick Kind = iota + 1
	KindSchedule
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindSchedule:
		return "schedule"
	}
	return "unknown"
}

// Decision describes one scheduling event.
type Decision struct {
	Kind Kind
	Core int
	Tick uint64
	// Prev is the process leaving the core (the one running at a tick).
	Prev model.Pid
	// Next is the process selected to run; zero for ticks.
	Next model.Pid
	Idle bool
}

// Hook observes scheduling decisions. Hooks run outside the scheduler lock
// and may call read-only scheduler methods.
type Hook func(d Decision)

// HookID identifies a registered hook.
type HookID int

// Selector overrides FIFO selection: it receives the ready pids, head first,
// and returns the pid to run next, or false to leave the choice to the queue.
// Selectors run under the scheduler lock and must not call the scheduler.
type Selector func(d Decision, ready []model.Pid) (model.Pid, bool)

type hookEntry struct {
	id       HookID
	hook     Hook
	selector Selector
}

// HookAdd registers hook and returns its id.
func (s *Service) HookAdd(hook Hook) HookID {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.nextHook++
	s.hooks = append(s.hooks, hookEntry{id: s.nextHook, hook: hook})
	return s.nextHook
}

// SelectorAdd registers a selection override and returns its id. Selectors
// are consulted in registration order; the first valid pick wins.
func (s *Service) SelectorAdd(selector Selector) HookID {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.nextHook++
	s.hooks = append(s.hooks, hookEntry{id: s.nextHook, selector: selector})
	return s.nextHook
}

// HookRemove unregisters a hook or selector; it reports whether it was registered.
func (s *Service) HookRemove(id HookID) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i, entry := range s.hooks {
		if entry.id == id {
			s.hooks = append(s.hooks[:i:i], s.hooks[i+1:]...)
			return true
		}
	}
	return false
}

// hooksLocked returns a copy safe to iterate after unlocking.
func (s *Service) hooksLocked() []Hook {
	if len(s.hooks) == 0 {
		return nil
	}
	ret := make([]Hook, 0, len(s.hooks))
	for _, entry := range s.hooks {
		if entry.hook != nil {
			ret = append(ret, entry.hook)
		}
	}
	return ret
}

// nextLocked takes the process to run next from the ready queue, letting
// selectors pick out of FIFO order.
func (s *Service) nextLocked(d Decision) (*model.Descriptor, bool) {
	var pids []model.Pid
	for _, entry := range s.hooks {
		if entry.selector == nil || s.ready.Len() == 0 {
			continue
		}
		if pids == nil {
			pids = pidsOf(s.ready)
		}
		pid, ok := entry.selector(d, pids)
		if !ok {
			continue
		}
		p, found := s.ready.Search(func(p *model.Descriptor) bool { return p.Pid == pid })
		if !found {
			continue
		}
		if _, ok = s.ready.Unlink(p.Link.Handle); ok {
			return p, true
		}
	}
	return s.ready.Get()
}

func notify(hooks []Hook, d Decision) {
	for _, hook := range hooks {
		hook(d)
	}
}
