package ipc

import (
	"github.com/viant/xkernel/model"
)

// message is a pending envelope copy held in the destination's mailbox.
type message struct {
	model.Header
	payload []byte
}

// request is a receiver parked in recv. Send completes it by copying the
// payload into a kernel buffer; the receiver collects it on re-entry.
type request struct {
	pid      model.Pid
	desc     *model.Descriptor
	src      model.Pid
	tag      model.Tag
	capacity int
	done     bool
	header   model.Header
	payload  []byte
	length   int
	err      error
}

func (r *request) matches(h model.Header) bool {
	return !r.done && r.pid == h.Dst && h.Matches(r.src, r.tag)
}

func (r *request) deliver(h model.Header, payload []byte) {
	n := len(payload)
	if n > r.capacity {
		n = r.capacity
	}
	r.payload = make([]byte, n)
	copy(r.payload, payload)
	r.header = h
	r.length = len(payload)
	r.done = true
}

func (r *request) fail(err error) {
	r.err = err
	r.done = true
}

// copyOut writes payload into the caller's envelope and fills its status.
func copyOut(env *model.Envelope, h model.Header, payload []byte, length int) model.Status {
	n := copy(env.Buf[:env.Len], payload)
	status := model.Status{Sender: h.Src, Tag: h.Tag, Copied: n, Length: length}
	env.Src = h.Src
	env.Tag = h.Tag
	if env.Status != nil {
		*env.Status = status
	}
	return status
}
