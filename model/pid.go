package model

import "strconv"

// Pid identifies a process. Positive ids are issued to user processes,
// negative ids are reserved for system roles, and 0 is never a process.
type Pid int32

const (
	// AnyPid is the wildcard: any source in Recv, any child in Wait.
	AnyPid Pid = 0

	// PidHardware is the pseudo-process that interrupt handlers run as.
	PidHardware Pid = -1
	// PidIdle runs on a core when the ready queue is empty.
	PidIdle Pid = -2
	// PidKernel is the kernel-services target; orphans are re-parented to it.
	PidKernel Pid = -3
	// PidLogger is the logging daemon.
	PidLogger Pid = -4
	// PidDisk is the disk daemon.
	PidDisk Pid = -5
	// PidNet is the network daemon.
	PidNet Pid = -6
	// PidConsole is the console daemon.
	PidConsole Pid = -7

	// MaxPid is the largest user pid.
	MaxPid Pid = 1<<15 - 1
)

var reservedNames = map[Pid]string{
	PidHardware: "hardware",
	PidIdle:     "idle",
	PidKernel:   "kernel",
	PidLogger:   "logger",
	PidDisk:     "disk",
	PidNet:      "net",
	PidConsole:  "console",
}

// IsReserved reports whether p is one of the system role ids.
func (p Pid) IsReserved() bool {
	_, ok := reservedNames[p]
	return ok
}

// IsSpawnable reports whether a process may be admitted with id p:
// any user pid, or a reserved daemon id other than hardware and idle.
func (p Pid) IsSpawnable() bool {
	if p > 0 {
		return p <= MaxPid
	}
	return p.IsReserved() && p != PidHardware && p != PidIdle
}

// Key returns the 4-byte little-endian hash key of p.
func (p Pid) Key() []byte {
	v := uint32(p)
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func (p Pid) String() string {
	if name, ok := reservedNames[p]; ok {
		return name
	}
	return strconv.Itoa(int(p))
}

// ReservedName returns the role name of a reserved pid.
func ReservedName(p Pid) (string, bool) {
	name, ok := reservedNames[p]
	return name, ok
}
