package xkernel

import (
	"context"
	"fmt"

	"github.com/viant/xkernel/internal/halt"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/stats"
	"github.com/viant/xkernel/tracing"
)

// StatusPanic is the exit status of a process whose step panicked.
const StatusPanic = -1

// Dispatch handles one timer interrupt on core: the running process is
// preempted and the next one, unless it is the idle process, runs one step.
// A kernel halt during the step is returned as an error.
func (s *Service) Dispatch(ctx context.Context, core int) error {
	if halt.Halted() {
		return ErrHalted
	}
	next, err := s.sched.Tick(core)
	if err != nil {
		return err
	}
	if next.Pid == model.PidIdle {
		return nil
	}
	return s.step(ctx, core, next)
}

func (s *Service) step(ctx context.Context, core int, p *model.Descriptor) (err error) {
	ctx = stats.WithStats(ctx, s.stats)
	ctx, span := tracing.StartSpan(ctx, "process.step", tracing.KindInternal)
	span.WithInt("pid", int(p.Pid)).WithInt("core", core)
	defer func() {
		r := recover()
		if r == nil {
			tracing.EndSpan(span, err)
			return
		}
		if info, ok := r.(halt.Info); ok {
			err = fmt.Errorf("%w: %v", ErrHalted, info)
			tracing.EndSpan(span, err)
			return
		}
		stats.UpdateCtx(ctx, stats.Delta{Panics: 1})
		s.logger.Error().Int32("pid", int32(p.Pid)).Str("name", p.Name).Interface("panic", r).Msg("process panicked")
		s.exit(ctx, p, StatusPanic)
		tracing.EndSpan(span, fmt.Errorf("process %v panicked: %v", p.Pid, r))
	}()
	if p.Program == nil {
		s.exit(ctx, p, 0)
		return nil
	}
	p.Program.Step(newContext(ctx, s, p, core))
	stats.UpdateCtx(ctx, stats.Delta{Steps: 1})
	return nil
}
