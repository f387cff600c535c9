package xkernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/xkernel/model"
)

// Result codes returned by HandleSyscall.
const (
	ErrnoOK            = 0
	ErrnoParked        = 1
	ErrnoGeneric       = -1
	ErrnoInvalidTarget = -2
	ErrnoNoMemory      = -3
	ErrnoPeerDead      = -4
	ErrnoWouldBlock    = -5
	ErrnoInvalidArg    = -6
)

// Errno maps a syscall error to its result code. ErrnoParked means the
// caller was parked and must re-issue the call once resumed.
func Errno(err error) int {
	switch {
	case err == nil:
		return ErrnoOK
	case errors.Is(err, model.ErrBlocked):
		return ErrnoParked
	case errors.Is(err, model.ErrInvalidTarget):
		return ErrnoInvalidTarget
	case errors.Is(err, model.ErrNoMemory):
		return ErrnoNoMemory
	case errors.Is(err, model.ErrPeerDead):
		return ErrnoPeerDead
	case errors.Is(err, model.ErrWouldBlock):
		return ErrnoWouldBlock
	case errors.Is(err, model.ErrInvalidArgument):
		return ErrnoInvalidArg
	}
	return ErrnoGeneric
}

// HandleSyscall is the software interrupt entry for message passing on
// behalf of pid. Failures are returned as negative result codes.
func (s *Service) HandleSyscall(ctx context.Context, vector int, pid model.Pid, env *model.Envelope) int {
	caller, ok := s.table.Lookup(pid)
	if !ok {
		s.logger.Debug().Int32("pid", int32(pid)).Msg("trap from unknown process")
		return ErrnoInvalidTarget
	}
	err := s.ipc.HandleSyscall(ctx, vector, caller, env)
	if err != nil && !errors.Is(err, model.ErrBlocked) {
		s.logger.Debug().Err(err).Int32("pid", int32(pid)).Msg("trap failed")
	}
	return Errno(err)
}

// Send is a kernel-side send on behalf of src, typically a system daemon or
// an interrupt handler using model.PidHardware.
func (s *Service) Send(src, dst model.Pid, tag model.Tag, payload []byte) (model.Tag, error) {
	env := &model.Envelope{Direction: model.DirectionSend, Dst: dst, Tag: tag, Buf: payload, Len: len(payload)}
	if err := s.ipc.Send(src, env); err != nil {
		return 0, fmt.Errorf("send %v -> %v: %w", src, dst, err)
	}
	return env.Tag, nil
}
