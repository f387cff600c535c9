package model

// WaitOption modifies Wait.
type WaitOption int

const (
	// WaitNoHang returns ErrWouldBlock instead of blocking.
	WaitNoHang WaitOption = 1 << iota
)

// Has reports whether o includes flag.
func (o WaitOption) Has(flag WaitOption) bool { return o&flag != 0 }

// ExitInfo is delivered to a waiter when a child is collected.
type ExitInfo struct {
	Pid    Pid
	Status int
}

// WaitCallback receives the exit info of a collected child together with
// the argument recorded by the waiter.
type WaitCallback func(info ExitInfo, arg interface{})
