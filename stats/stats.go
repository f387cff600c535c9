package stats

import (
	"context"
	"sync"
	"time"

	"github.com/viant/xkernel/internal/clock"
	"github.com/viant/xkernel/service/scheduler"
)

// Delta is an incremental counter change.
type Delta struct {
	Ticks    int
	Switches int
	Idle     int
	Steps    int
	Spawned  int
	Exited   int
	Killed   int
	Panics   int
}

// Counters is a point-in-time copy of the kernel counters.
type Counters struct {
	BootID    string
	StartedAt time.Time

	Ticks    int
	Switches int
	Idle     int
	Steps    int
	Spawned  int
	Exited   int
	Killed   int
	Panics   int
}

func (c *Counters) apply(d Delta) {
	c.Ticks += d.Ticks
	c.Switches += d.Switches
	c.Idle += d.Idle
	c.Steps += d.Steps
	c.Spawned += d.Spawned
	c.Exited += d.Exited
	c.Killed += d.Killed
	c.Panics += d.Panics
}

// Stats holds kernel counters. It is safe for concurrent use.
type Stats struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New returns zeroed counters for the kernel instance bootID.
func New(bootID string) *Stats {
	return &Stats{counters: Counters{BootID: bootID, StartedAt: clock.Now()}}
}

// Update applies d; the onChange callback, if any, sees a copy outside the lock.
func (s *Stats) Update(d Delta) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.counters.apply(d)
	snapshot := s.counters
	cb := s.onChange
	s.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy for read-only inspection.
func (s *Stats) Snapshot() Counters {
	if s == nil {
		return Counters{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// OnChange registers the single update callback; nil disables it.
func (s *Stats) OnChange(cb func(Counters)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onChange = cb
	s.mu.Unlock()
}

// Hook returns a scheduler hook counting ticks, switches and idle selections.
func (s *Stats) Hook() scheduler.Hook {
	return func(d scheduler.Decision) {
		switch d.Kind {
		case scheduler.KindTick:
			s.Update(Delta{Ticks: 1})
		case scheduler.KindSchedule:
			delta := Delta{}
			if d.Prev != d.Next {
				delta.Switches = 1
			}
			if d.Idle {
				delta.Idle = 1
			}
			s.Update(delta)
		}
	}
}

type statsKeyT struct{}

var statsKey statsKeyT

// WithStats embeds s in a derived context.
func WithStats(ctx context.Context, s *Stats) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, statsKey, s)
}

// FromContext extracts the counters carried by ctx.
func FromContext(ctx context.Context) (*Stats, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(statsKey).(*Stats)
	return s, ok
}

// UpdateCtx applies d to the counters carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if s, ok := FromContext(ctx); ok {
		s.Update(d)
	}
}
