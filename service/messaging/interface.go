// Package messaging defines the queue abstraction carrying kernel events
// from the kernel to out-of-band consumers.
package messaging

import (
	"context"
)

// Vendor names a queue implementation.
type Vendor string

// VendorMemory is the in-process queue.
const VendorMemory Vendor = "memory"

// Queue is a message queue for payloads of type T.
type Queue[T any] interface {
	// Publish enqueues t. Implementations used from kernel paths must not block.
	Publish(ctx context.Context, t *T) error

	// Consume waits for the next message.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a consumed queue item.
type Message[T any] interface {
	// T returns the payload.
	T() *T

	// Ack acknowledges successful processing.
	Ack() error

	// Nack reports failed processing; the message may be redelivered.
	Nack(err error) error
}
