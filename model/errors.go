package model

import "errors"

var (
	// ErrBlocked reports that the caller was parked; the call completes when
	// re-issued after the process is resumed.
	ErrBlocked = errors.New("kernel: caller blocked")

	// ErrInvalidTarget reports an unknown process or a wait on a non-child.
	ErrInvalidTarget = errors.New("kernel: invalid target")

	// ErrNoMemory reports that a kernel structure could not be allocated.
	ErrNoMemory = errors.New("kernel: no memory")

	// ErrPeerDead reports that the peer of a blocked call was destroyed.
	ErrPeerDead = errors.New("kernel: peer dead")

	// ErrWouldBlock reports that a non-blocking call found nothing ready.
	ErrWouldBlock = errors.New("kernel: would block")

	// ErrInvalidArgument reports a malformed request.
	ErrInvalidArgument = errors.New("kernel: invalid argument")
)
