// Package ipc implements synchronous message passing: non-blocking send,
// blocking receive, mailboxes indexed by destination pid, and purge of a
// departed process's traffic.
//
// Recv is split into two re-entrant halves. The fast path takes a matching
// envelope from the caller's mailbox. Otherwise the request is parked, the
// caller is blocked and Recv returns model.ErrBlocked; a later Send copies
// straight into the parked request and readies the receiver, which collects
// the result by issuing the same Recv again.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/viant/xkernel/container/hashtable"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/spinlock"
	"github.com/viant/xkernel/tracing"
)

// SyscallVector is the software interrupt number of the IPC trap.
const SyscallVector = 0x80

const (
	// DefaultBuckets is the default mailbox bucket count.
	DefaultBuckets = 64
	// DefaultMaxMessageBytes bounds a single envelope copy.
	DefaultMaxMessageBytes = 64 << 10
)

// ErrDuplicate is returned when the mailbox already holds an envelope with
// the same destination, source and tag.
var ErrDuplicate = fmt.Errorf("%w: duplicate envelope", model.ErrInvalidArgument)

// Scheduler is the subset of the scheduler used to park receivers.
type Scheduler interface {
	Block(p *model.Descriptor, reason model.Reason) error
	Unblock(p *model.Descriptor) bool
	IsZombie(p *model.Descriptor) bool
}

// Resolver finds a descriptor by pid.
type Resolver interface {
	Lookup(pid model.Pid) (*model.Descriptor, bool)
}

// Service is the message-passing subsystem.
type Service struct {
	lock     *spinlock.Lock
	mailbox  *hashtable.Table[*message]
	parked   *hashtable.Table[*request]
	tags     atomic.Uint32
	sched    Scheduler
	resolver Resolver
	buckets  int
	maxBytes int
	logger   zerolog.Logger
}

// New creates the mailbox and parked-receiver tables.
func New(sched Scheduler, resolver Resolver, options ...Option) *Service {
	s := &Service{
		lock:     spinlock.New("ipc"),
		sched:    sched,
		resolver: resolver,
		buckets:  DefaultBuckets,
		maxBytes: DefaultMaxMessageBytes,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.mailbox = hashtable.Open[*message](s.buckets)
	s.parked = hashtable.Open[*request](s.buckets)
	return s
}

// NextTag issues a fresh tag; 0 is never issued.
func (s *Service) NextTag() model.Tag {
	for {
		if tag := s.tags.Add(1); tag != 0 {
			return model.Tag(tag)
		}
	}
}

// HandleSyscall is the trap entry: it dispatches env to Send or Recv by
// direction on behalf of caller.
func (s *Service) HandleSyscall(ctx context.Context, vector int, caller *model.Descriptor, env *model.Envelope) (err error) {
	_, span := tracing.StartSpan(ctx, "ipc.syscall", tracing.KindServer)
	span.WithInt("pid", int(caller.Pid)).WithInt("vector", vector)
	defer func() {
		if errors.Is(err, model.ErrBlocked) {
			span.Event("blocked")
			tracing.EndSpan(span, nil)
			return
		}
		tracing.EndSpan(span, err)
	}()
	if vector != SyscallVector {
		return fmt.Errorf("%w: vector %#x", model.ErrInvalidArgument, vector)
	}
	if env == nil {
		return fmt.Errorf("%w: nil envelope", model.ErrInvalidArgument)
	}
	span.WithAttributes(map[string]string{"direction": env.Direction.String()})
	switch env.Direction {
	case model.DirectionSend:
		return s.Send(caller.Pid, env)
	case model.DirectionRecv:
		_, err = s.Recv(caller, env)
		return err
	}
	return fmt.Errorf("%w: direction %d", model.ErrInvalidArgument, env.Direction)
}

// Send delivers env.Buf[:env.Len] from src to env.Dst and never blocks. A
// zero env.Tag is replaced with a freshly issued tag; the tag used is stored
// back into env.Tag.
func (s *Service) Send(src model.Pid, env *model.Envelope) error {
	if err := validate(env); err != nil {
		return err
	}
	if env.Len > s.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", model.ErrNoMemory, env.Len, s.maxBytes)
	}
	if env.Dst == model.AnyPid {
		return fmt.Errorf("%w: wildcard destination", model.ErrInvalidTarget)
	}
	tag := env.Tag
	if tag == model.AnyTag {
		tag = s.NextTag()
	}
	header := model.Header{Dst: env.Dst, Src: src, Tag: tag}
	key := env.Dst.Key()
	payload := env.Buf[:env.Len]

	s.lock.Lock()
	dst, ok := s.resolver.Lookup(env.Dst)
	if !ok || s.sched.IsZombie(dst) {
		s.lock.Unlock()
		return fmt.Errorf("%w: destination %d", model.ErrInvalidTarget, env.Dst)
	}
	if req, ok := s.parked.Search(func(r *request) bool { return r.matches(header) }, key); ok {
		req.deliver(header, payload)
		s.sched.Unblock(req.desc)
		s.lock.Unlock()
		env.Src, env.Tag = src, tag
		s.logger.Debug().Int32("src", int32(src)).Int32("dst", int32(env.Dst)).Uint32("tag", uint32(tag)).Msg("rendezvous")
		return nil
	}
	if _, dup := s.mailbox.Search(func(m *message) bool { return m.Header == header }, key); dup {
		s.lock.Unlock()
		return fmt.Errorf("%w: dst=%d src=%d tag=%d", ErrDuplicate, env.Dst, src, tag)
	}
	msg := &message{Header: header, payload: make([]byte, len(payload))}
	copy(msg.payload, payload)
	s.mailbox.Put(key, msg)
	s.lock.Unlock()
	env.Src, env.Tag = src, tag
	return nil
}

// Recv receives into env.Buf[:env.Len] a message for p from env.Src (or any
// source when AnyPid) carrying env.Tag (or any tag when AnyTag). It returns
// model.ErrBlocked when p had to be parked.
func (s *Service) Recv(p *model.Descriptor, env *model.Envelope) (model.Status, error) {
	if err := validate(env); err != nil {
		return model.Status{}, err
	}
	key := p.Pid.Key()

	s.lock.Lock()
	if req, ok := s.parked.Remove(func(r *request) bool { return r.pid == p.Pid && r.done }, key); ok {
		s.lock.Unlock()
		if req.err != nil {
			return model.Status{}, req.err
		}
		return copyOut(env, req.header, req.payload, req.length), nil
	}
	if _, ok := s.parked.Search(func(r *request) bool { return r.pid == p.Pid }, key); ok {
		s.lock.Unlock()
		return model.Status{}, model.ErrBlocked
	}
	src, tag := env.Src, env.Tag
	if msg, ok := s.mailbox.Remove(func(m *message) bool { return m.Dst == p.Pid && m.Matches(src, tag) }, key); ok {
		s.lock.Unlock()
		return copyOut(env, msg.Header, msg.payload, len(msg.payload)), nil
	}
	if src != model.AnyPid && src != model.PidHardware {
		peer, ok := s.resolver.Lookup(src)
		if !ok || s.sched.IsZombie(peer) {
			s.lock.Unlock()
			return model.Status{}, fmt.Errorf("%w: source %d", model.ErrPeerDead, src)
		}
	}
	req := &request{pid: p.Pid, desc: p, src: src, tag: tag, capacity: env.Len}
	if err := s.sched.Block(p, model.ReasonRecv); err != nil {
		s.lock.Unlock()
		return model.Status{}, err
	}
	s.parked.Put(key, req)
	s.lock.Unlock()
	return model.Status{}, model.ErrBlocked
}

// Purge removes every envelope sent by or addressed to pid, drops pid's own
// parked request and fails receivers waiting on pid with model.ErrPeerDead.
// It returns the number of envelopes removed.
func (s *Service) Purge(pid model.Pid) int {
	return s.purge(pid, true)
}

// Retire is Purge for a process that exited normally: envelopes it sent stay
// deliverable to their receivers.
func (s *Service) Retire(pid model.Pid) int {
	return s.purge(pid, false)
}

func (s *Service) purge(pid model.Pid, outgoing bool) int {
	s.lock.Lock()
	removed := s.mailbox.RemoveWhere(func(m *message) bool {
		return m.Dst == pid || (outgoing && m.Src == pid)
	})
	s.parked.RemoveWhere(func(r *request) bool { return r.pid == pid })
	var orphaned []*request
	s.parked.Apply(func(r *request) {
		if !r.done && r.src == pid {
			orphaned = append(orphaned, r)
		}
	})
	for _, r := range orphaned {
		r.fail(fmt.Errorf("%w: source %d", model.ErrPeerDead, pid))
		s.sched.Unblock(r.desc)
	}
	s.lock.Unlock()
	if removed > 0 || len(orphaned) > 0 {
		s.logger.Warn().Int32("pid", int32(pid)).Int("envelopes", removed).Int("receivers", len(orphaned)).Msg("ipc purge")
	}
	return removed
}

// Pending returns the number of envelopes waiting in dst's mailbox.
func (s *Service) Pending(dst model.Pid) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	count := 0
	s.mailbox.Apply(func(m *message) {
		if m.Dst == dst {
			count++
		}
	})
	return count
}

// Len returns the number of envelopes held system-wide.
func (s *Service) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mailbox.Len()
}

// Parked reports whether p has a receive request outstanding.
func (s *Service) Parked(p model.Pid) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.parked.Search(func(r *request) bool { return r.pid == p }, p.Key())
	return ok
}

func validate(env *model.Envelope) error {
	if env == nil {
		return fmt.Errorf("%w: nil envelope", model.ErrInvalidArgument)
	}
	if env.Len < 0 || env.Len > len(env.Buf) {
		return fmt.Errorf("%w: length %d outside buffer of %d", model.ErrInvalidArgument, env.Len, len(env.Buf))
	}
	return nil
}
