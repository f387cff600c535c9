package scheduler

import (
	"fmt"
	"io"
	"strings"

	"github.com/viant/xkernel/container/queue"
	"github.com/viant/xkernel/model"
)

// SaveEntry returns the ps entry of p. Parent is left for the caller to fill.
func (s *Service) SaveEntry(p *model.Descriptor) model.Entry {
	s.lock.Lock()
	defer s.lock.Unlock()
	return entryOf(p)
}

// PS lists every process the scheduler holds: running (idle included) per
// core, then ready in queue order, then blocked by reason.
func (s *Service) PS() []model.Entry {
	s.lock.Lock()
	defer s.lock.Unlock()
	var entries []model.Entry
	for _, p := range s.running {
		if p != nil {
			entries = append(entries, entryOf(p))
		}
	}
	collect := func(p *model.Descriptor, acc *[]model.Entry) { *acc = append(*acc, entryOf(p)) }
	queue.ApplyWith(s.ready, collect, &entries)
	for _, reason := range model.Reasons {
		queue.ApplyWith(s.blocked[reason], collect, &entries)
	}
	return entries
}

// Ready returns the pids in the ready queue, head first.
func (s *Service) Ready() []model.Pid {
	s.lock.Lock()
	defer s.lock.Unlock()
	return pidsOf(s.ready)
}

// Blocked returns the pids blocked for reason, oldest first.
func (s *Service) Blocked(reason model.Reason) []model.Pid {
	s.lock.Lock()
	defer s.lock.Unlock()
	q, ok := s.blocked[reason]
	if !ok {
		return nil
	}
	return pidsOf(q)
}

// PrintRelations writes the per-core running/last slots and queue contents.
func (s *Service) PrintRelations(w io.Writer) error {
	s.lock.Lock()
	var b strings.Builder
	for core := 0; core < s.cores; core++ {
		fmt.Fprintf(&b, "core %d: running=%s last=%s\n", core, pidOf(s.running[core]), pidOf(s.last[core]))
	}
	fmt.Fprintf(&b, "ready: %v\n", pidsOf(s.ready))
	for _, reason := range model.Reasons {
		fmt.Fprintf(&b, "blocked[%s]: %v\n", reason, pidsOf(s.blocked[reason]))
	}
	s.lock.Unlock()
	_, err := io.WriteString(w, b.String())
	return err
}

func entryOf(p *model.Descriptor) model.Entry {
	return model.Entry{
		Status: p.State.Code(),
		Pid:    p.Pid,
		Name:   p.Name,
		Reason: p.Reason.String(),
	}
}

func pidsOf(q *queue.Queue[*model.Descriptor]) []model.Pid {
	ret := make([]model.Pid, 0, q.Len())
	q.Apply(func(p *model.Descriptor) { ret = append(ret, p.Pid) })
	return ret
}

func pidOf(p *model.Descriptor) string {
	if p == nil {
		return "-"
	}
	return p.Pid.String()
}
