package xkernel

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/viant/xkernel/internal/clock"
	"github.com/viant/xkernel/internal/idgen"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao"
)

// PS lists the process table in pid order, system daemons first.
func (s *Service) PS(ctx context.Context, parameters ...*dao.Parameter) ([]model.Entry, error) {
	procs, err := s.table.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].Pid < procs[j].Pid })
	entries := make([]model.Entry, 0, len(procs))
	for _, p := range procs {
		entry := s.sched.SaveEntry(p)
		entry.Parent = s.waits.Parent(p)
		entries = append(entries, entry)
	}
	return entries, nil
}

// PrintPS writes a ps listing to w.
func (s *Service) PrintPS(ctx context.Context, w io.Writer) error {
	entries, err := s.PS(ctx)
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("S    PID   PPID NAME\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%c %6d %6d %s\n", e.Status, e.Pid, e.Parent, e.Name)
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// PrintRelations writes the scheduler slots and queues followed by the
// parent/child relations of live processes.
func (s *Service) PrintRelations(ctx context.Context, w io.Writer) error {
	if err := s.sched.PrintRelations(w); err != nil {
		return err
	}
	procs, err := s.table.List(ctx)
	if err != nil {
		return err
	}
	parents := map[model.Pid]bool{model.PidKernel: true}
	for _, p := range procs {
		parents[p.Pid] = true
	}
	pids := make([]model.Pid, 0, len(parents))
	for pid := range parents {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	var b strings.Builder
	for _, pid := range pids {
		if children := s.waits.Children(pid); len(children) > 0 {
			fmt.Fprintf(&b, "children[%v]: %v\n", pid, children)
		}
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// SaveSnapshot stores the current ps listing and returns it.
func (s *Service) SaveSnapshot(ctx context.Context) (*model.Snapshot, error) {
	entries, err := s.PS(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := &model.Snapshot{
		ID:        idgen.New(),
		CreatedAt: clock.Now(),
		Tick:      s.sched.Ticks(),
		Entries:   entries,
	}
	if err = s.snapshots.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snapshot, nil
}
