package xkernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/xkernel/internal/clock"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao"
	"github.com/viant/xkernel/service/event"
	mmemory "github.com/viant/xkernel/service/messaging/memory"
	"github.com/viant/xkernel/stats"
	"github.com/viant/xkernel/tracing"
)

// Spawn creates a ready process running program, parented to the kernel.
func (s *Service) Spawn(ctx context.Context, name string, program model.Program) (model.Pid, error) {
	return s.spawn(ctx, model.PidKernel, name, program)
}

// SpawnSystem starts a daemon under a reserved pid such as model.PidLogger.
func (s *Service) SpawnSystem(ctx context.Context, pid model.Pid, name string, program model.Program) error {
	if !pid.IsReserved() || pid == model.PidIdle || pid == model.PidHardware || pid == model.PidKernel {
		return fmt.Errorf("%w: %v is not a system daemon pid", model.ErrInvalidArgument, pid)
	}
	return s.start(ctx, pid, model.PidKernel, name, program)
}

func (s *Service) spawn(ctx context.Context, parent model.Pid, name string, program model.Program) (model.Pid, error) {
	if program == nil {
		return 0, fmt.Errorf("%w: nil program", model.ErrInvalidArgument)
	}
	pid, err := s.table.NextPid()
	if err != nil {
		return 0, err
	}
	if err = s.start(ctx, pid, parent, name, program); err != nil {
		return 0, err
	}
	return pid, nil
}

func (s *Service) start(ctx context.Context, pid, parent model.Pid, name string, program model.Program) error {
	if program == nil {
		return fmt.Errorf("%w: nil program", model.ErrInvalidArgument)
	}
	p := model.NewDescriptor(pid, name, program, parent)
	p.CreatedAt = clock.Now()
	if err := s.table.Insert(ctx, p); err != nil {
		if errors.Is(err, dao.ErrExists) {
			return fmt.Errorf("%w: pid %v in use", model.ErrInvalidArgument, pid)
		}
		return err
	}
	// a reused pid must not inherit mail addressed to its previous owner
	s.ipc.Purge(pid)
	s.waits.New(p, parent)
	s.sched.Add(p)
	s.stats.Update(stats.Delta{Spawned: 1})
	s.publish(ctx, event.TypeSpawn, p, 0)
	s.logger.Debug().Int32("pid", int32(pid)).Int32("parent", int32(parent)).Str("name", name).Msg("spawned")
	return nil
}

// Kill destroys pid without an orderly exit: its mail and parked requests
// are discarded, semaphore waits are withdrawn, children are re-parented and
// a parent waiting for it sees model.ErrPeerDead.
func (s *Service) Kill(ctx context.Context, pid model.Pid) error {
	if pid == model.PidIdle || pid == model.PidHardware || pid == model.PidKernel {
		return fmt.Errorf("%w: %v cannot be killed", model.ErrInvalidTarget, pid)
	}
	p, ok := s.table.Lookup(pid)
	if !ok {
		return fmt.Errorf("%w: process %v", model.ErrInvalidTarget, pid)
	}
	if !s.destroy(ctx, p) {
		return fmt.Errorf("%w: process %v already exited", model.ErrInvalidTarget, pid)
	}
	s.stats.Update(stats.Delta{Killed: 1})
	s.publish(ctx, event.TypeKill, p, StatusKilled)
	s.logger.Info().Int32("pid", int32(pid)).Str("name", p.Name).Msg("killed")
	return nil
}

// Assume transfers the identity of old to replacement, exec style:
// replacement takes old's place under old's parent, adopts old's children
// and pending waits for old, and old is then destroyed without notifying
// anyone.
func (s *Service) Assume(ctx context.Context, old, replacement model.Pid) error {
	if old == replacement {
		return fmt.Errorf("%w: %v cannot assume itself", model.ErrInvalidArgument, old)
	}
	if old.IsReserved() {
		return fmt.Errorf("%w: %v cannot be replaced", model.ErrInvalidTarget, old)
	}
	from, ok := s.table.Lookup(old)
	if !ok || s.sched.IsZombie(from) {
		return fmt.Errorf("%w: process %v", model.ErrInvalidTarget, old)
	}
	to, ok := s.table.Lookup(replacement)
	if !ok || s.sched.IsZombie(to) {
		return fmt.Errorf("%w: process %v", model.ErrInvalidTarget, replacement)
	}
	s.waits.Assume(from, to)
	if !s.destroy(ctx, from) {
		return fmt.Errorf("%w: process %v already exited", model.ErrInvalidTarget, old)
	}
	s.publish(ctx, event.TypeKill, from, StatusKilled)
	s.logger.Info().Int32("pid", int32(old)).Int32("replacement", int32(replacement)).Msg("assumed")
	return nil
}

// destroy purges p from every service. Only the caller that wins the zombie
// transition purges, so a concurrent exit never releases a pid twice.
func (s *Service) destroy(ctx context.Context, p *model.Descriptor) bool {
	if !s.sched.Zombie(p, StatusKilled) {
		return false
	}
	s.ipc.Purge(p.Pid)
	s.sems.Purge(p.Pid)
	s.waits.Purge(p)
	s.sched.Purge(p)
	_ = s.table.Delete(ctx, p.Pid)
	return true
}

// exit terminates p with status. Mail it already sent stays deliverable.
func (s *Service) exit(ctx context.Context, p *model.Descriptor, status int) {
	if !s.sched.Zombie(p, status) {
		return
	}
	if span, ok := tracing.SpanFromContext(ctx); ok {
		span.WithInt("exit.status", status).Event("exit")
	}
	s.ipc.Retire(p.Pid)
	s.sems.Purge(p.Pid)
	s.stats.Update(stats.Delta{Exited: 1})
	s.publish(ctx, event.TypeExit, p, status)
	// may reap p and release its pid, so it runs last
	s.waits.Exit(p, status)
}

// reap finalises a process whose status was collected.
func (s *Service) reap(p *model.Descriptor) {
	if err := s.table.Delete(context.Background(), p.Pid); err != nil && !errors.Is(err, dao.ErrNotFound) {
		s.logger.Warn().Err(err).Int32("pid", int32(p.Pid)).Msg("failed to release process")
	}
	s.publish(context.Background(), event.TypeReap, p, p.ExitStatus)
}

func (s *Service) publish(ctx context.Context, eventType event.Type, p *model.Descriptor, status int) {
	if s.lifecycle == nil {
		return
	}
	evt := event.NewEvent(&event.Context{BootID: s.bootID, Pid: p.Pid, EventType: eventType}, event.Lifecycle{
		Pid:    p.Pid,
		Name:   p.Name,
		Parent: s.waits.Parent(p),
		Status: status,
	})
	if err := s.lifecycle.Publish(ctx, evt); err != nil {
		if errors.Is(err, mmemory.ErrQueueFull) {
			s.logger.Warn().Str("event", string(eventType)).Int32("pid", int32(p.Pid)).Msg("event queue full, dropping")
			return
		}
		s.logger.Error().Err(err).Str("event", string(eventType)).Msg("failed to publish event")
	}
}
