// Package event publishes kernel lifecycle events (spawn, exit, reap, kill)
// to typed queues that consumers observe out of band.
package event

import (
	"time"

	"github.com/viant/xkernel/internal/clock"
	"github.com/viant/xkernel/model"
)

// Type names a lifecycle event.
type Type string

const (
	TypeSpawn Type = "spawn"
	TypeExit  Type = "exit"
	TypeReap  Type = "reap"
	TypeKill  Type = "kill"
)

// Context identifies the process an event is about.
type Context struct {
	BootID    string    `json:"bootID"`
	Pid       model.Pid `json:"pid"`
	EventType Type      `json:"eventType"`
}

// Event wraps a payload with its context.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

// Lifecycle is the payload of process lifecycle events.
type Lifecycle struct {
	Pid    model.Pid `json:"pid"`
	Name   string    `json:"name"`
	Parent model.Pid `json:"parent"`
	Status int       `json:"status"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
