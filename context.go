package xkernel

import (
	"context"
	"errors"

	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/ipc"
)

// Context is the syscall surface of one process step. Once a call parks the
// process, or the process exits, every later call in the same step returns
// model.ErrBlocked.
type Context struct {
	ctx     context.Context
	kernel  *Service
	proc    *model.Descriptor
	core    int
	stopped bool
}

var _ model.Syscalls = (*Context)(nil)

func newContext(ctx context.Context, kernel *Service, proc *model.Descriptor, core int) *Context {
	return &Context{ctx: ctx, kernel: kernel, proc: proc, core: core}
}

// Core returns the core the step runs on.
func (c *Context) Core() int { return c.core }

// Pid returns the caller's pid.
func (c *Context) Pid() model.Pid { return c.proc.Pid }

// Send delivers payload to dst. A zero tag requests a fresh one; the tag
// used is returned.
func (c *Context) Send(dst model.Pid, tag model.Tag, payload []byte) (model.Tag, error) {
	if c.halted() {
		return 0, model.ErrBlocked
	}
	env := &model.Envelope{Direction: model.DirectionSend, Dst: dst, Tag: tag, Buf: payload, Len: len(payload)}
	if err := c.kernel.ipc.HandleSyscall(c.ctx, ipc.SyscallVector, c.proc, env); err != nil {
		return 0, c.track(err)
	}
	return env.Tag, nil
}

// Recv receives into buf the oldest envelope matching src and tag.
func (c *Context) Recv(src model.Pid, tag model.Tag, buf []byte) (model.Status, error) {
	if c.halted() {
		return model.Status{}, model.ErrBlocked
	}
	status := &model.Status{}
	env := &model.Envelope{Direction: model.DirectionRecv, Src: src, Tag: tag, Buf: buf, Len: len(buf), Status: status}
	if err := c.kernel.ipc.HandleSyscall(c.ctx, ipc.SyscallVector, c.proc, env); err != nil {
		return model.Status{}, c.track(err)
	}
	return *status, nil
}

// Wait collects the exit status of target, or of any child for model.AnyPid.
func (c *Context) Wait(target model.Pid, options model.WaitOption) (model.ExitInfo, error) {
	if c.halted() {
		return model.ExitInfo{}, model.ErrBlocked
	}
	info, err := c.kernel.waits.Wait(c.proc, target, options, nil, nil)
	return info, c.track(err)
}

// Exit terminates the caller.
func (c *Context) Exit(status int) {
	if c.halted() {
		return
	}
	c.stopped = true
	c.kernel.exit(c.ctx, c.proc, status)
}

// Yield gives up the rest of the time slice.
func (c *Context) Yield() {
	if c.halted() {
		return
	}
	c.kernel.sched.Yield(c.proc)
}

// SemWait acquires semaphore id.
func (c *Context) SemWait(id int) error {
	if c.halted() {
		return model.ErrBlocked
	}
	return c.track(c.kernel.sems.Wait(id, c.proc))
}

// SemSignal releases semaphore id.
func (c *Context) SemSignal(id int) error {
	if c.halted() {
		return model.ErrBlocked
	}
	return c.kernel.sems.Signal(id)
}

// Spawn starts a child of the caller.
func (c *Context) Spawn(name string, program model.Program) (model.Pid, error) {
	if c.halted() {
		return 0, model.ErrBlocked
	}
	return c.kernel.spawn(c.ctx, c.proc.Pid, name, program)
}

func (c *Context) halted() bool {
	return c.stopped || c.kernel.sched.IsZombie(c.proc)
}

func (c *Context) track(err error) error {
	if errors.Is(err, model.ErrBlocked) {
		c.stopped = true
	}
	return err
}
