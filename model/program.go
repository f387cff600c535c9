package model

// Program is the code a process runs. Step is invoked every time the process
// is scheduled on a core and must return promptly; state carried between
// steps lives in the Program value.
//
// A syscall returning ErrBlocked means the process was parked: Step must
// return, and the same call re-issued on a later step completes it.
type Program interface {
	Step(sys Syscalls)
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(sys Syscalls)

// Step calls fn(sys).
func (fn ProgramFunc) Step(sys Syscalls) { fn(sys) }

// Syscalls is the kernel interface available to a running process.
type Syscalls interface {
	Pid() Pid
	Send(dst Pid, tag Tag, payload []byte) (Tag, error)
	Recv(src Pid, tag Tag, buf []byte) (Status, error)
	Wait(target Pid, options WaitOption) (ExitInfo, error)
	Exit(status int)
	Yield()
	SemWait(id int) error
	SemSignal(id int) error
	Spawn(name string, program Program) (Pid, error)
}
