package model

import (
	"time"

	"github.com/viant/xkernel/container/queue"
)

// State is the scheduling state of a process.
type State int

const (
	StateReady State = iota
	StateRunning
	StateBlocked
	StateZombie
)

var stateNames = [...]string{"ready", "running", "blocked", "zombie"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Code returns the one-character status used by ps listings.
func (s State) Code() byte {
	switch s {
	case StateRunning:
		return 'R'
	case StateReady:
		return 'Q'
	case StateBlocked:
		return 'B'
	case StateZombie:
		return 'Z'
	}
	return '?'
}

// Reason tells why a process is blocked.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSend
	ReasonRecv
	ReasonWait
	ReasonSemaphore
)

// Reasons lists every blocking reason, one blocked queue each.
var Reasons = []Reason{ReasonSend, ReasonRecv, ReasonWait, ReasonSemaphore}

func (r Reason) String() string {
	switch r {
	case ReasonSend:
		return "send"
	case ReasonRecv:
		return "recv"
	case ReasonWait:
		return "wait"
	case ReasonSemaphore:
		return "semaphore"
	}
	return ""
}

// QueueID names the scheduler queue a descriptor is linked into.
type QueueID int

const (
	QueueNone QueueID = iota
	QueueReady
	QueueBlocked
)

// Link records queue membership; a descriptor is in at most one queue.
type Link struct {
	Queue  QueueID
	Handle queue.Handle
}

// Descriptor is the kernel record of a process.
//
// State, Reason, ExitStatus, Core and Link are guarded by the scheduler lock;
// Parent by the wait lock. Read them through the owning service.
type Descriptor struct {
	Pid       Pid
	Name      string
	Program   Program
	CreatedAt time.Time

	Parent Pid

	State      State
	Reason     Reason
	ExitStatus int
	Core       int
	Link       Link
}

// NewDescriptor returns a READY descriptor not yet linked into any queue.
func NewDescriptor(pid Pid, name string, program Program, parent Pid) *Descriptor {
	return &Descriptor{
		Pid:     pid,
		Name:    name,
		Program: program,
		Parent:  parent,
		State:   StateReady,
		Core:    -1,
	}
}
