// Package halt handles kernel-fatal conditions: a queue or table whose links
// are inconsistent means a process reference was lost or duplicated, and the
// kernel must stop rather than continue on corrupted state.
package halt

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Info describes a fatal condition.
type Info struct {
	Component string
	Reason    string
	Stack     []byte
}

func (i Info) Error() string {
	return fmt.Sprintf("kernel halt: %s: %s", i.Component, i.Reason)
}

var (
	halted  atomic.Bool
	once    sync.Once
	handler atomic.Value // func(Info)
)

// Halted reports whether a fatal condition has been raised.
func Halted() bool {
	return halted.Load()
}

// SetHandler installs a process-wide halt handler.
//
// The handler is invoked at most once (on the first halt). It must not panic.
func SetHandler(fn func(Info)) {
	handler.Store(fn)
}

// Fatal records halt mode, runs the handler once and panics with Info.
func Fatal(component, format string, args ...interface{}) {
	info := Info{Component: component, Reason: fmt.Sprintf(format, args...)}
	once.Do(func() {
		halted.Store(true)
		info.Stack = debug.Stack()
		if v := handler.Load(); v != nil {
			if fn, ok := v.(func(Info)); ok && fn != nil {
				fn(info)
			}
		}
	})
	panic(info)
}
