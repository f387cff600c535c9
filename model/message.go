package model

// Direction selects the IPC operation carried by an Envelope.
type Direction int

const (
	DirectionSend Direction = iota + 1
	DirectionRecv
)

func (d Direction) String() string {
	switch d {
	case DirectionSend:
		return "send"
	case DirectionRecv:
		return "recv"
	}
	return "unknown"
}

// Tag pairs a request with its response. Issued tags start at 1; in Recv
// AnyTag matches every tag, in Send it asks for a freshly issued tag.
type Tag uint32

// AnyTag is the zero tag.
const AnyTag Tag = 0

// Header is the mailbox match key.
type Header struct {
	Dst Pid
	Src Pid
	Tag Tag
}

// Matches reports whether a stored header h satisfies a receive request
// for src and tag, either of which may be a wildcard.
func (h Header) Matches(src Pid, tag Tag) bool {
	if src != AnyPid && h.Src != src {
		return false
	}
	return tag == AnyTag || h.Tag == tag
}

// Status is the receipt of a completed Recv.
type Status struct {
	Sender Pid
	Tag    Tag
	// Copied is the number of bytes written into the receive buffer.
	Copied int
	// Length is the sender's original payload length.
	Length int
}

// Truncated reports whether the receive buffer was too small.
func (s Status) Truncated() bool { return s.Copied < s.Length }

// Envelope is the syscall argument block for send and recv.
//
// For send, Dst and Buf[:Len] are read, Tag is read and updated with the
// tag actually used. For recv, Src and Tag select the message, the payload
// is copied into Buf[:Len] and Status is filled. Src is set by the kernel.
type Envelope struct {
	Direction Direction
	Dst       Pid
	Src       Pid
	Tag       Tag
	Len       int
	Buf       []byte
	Status    *Status
}
