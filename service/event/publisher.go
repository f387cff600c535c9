package event

import (
	"context"

	"github.com/viant/xkernel/internal/clock"
	"github.com/viant/xkernel/service/messaging"
)

// Publisher publishes events of one payload type, mirroring them onto the
// catch-all queue.
type Publisher[T any] struct {
	queue    messaging.Queue[Event[T]]
	anyQueue messaging.Queue[Event[any]]
}

// NewPublisher creates a publisher over queue.
func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{queue: queue}
}

// Publish stamps and enqueues event.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	event.CreatedAt = clock.Now()
	if p.anyQueue != nil {
		_ = p.anyQueue.Publish(ctx, &Event[any]{
			Context:   event.Context,
			CreatedAt: event.CreatedAt,
			Metadata:  event.Metadata,
			Data:      event.Data,
		})
	}
	return p.queue.Publish(ctx, event)
}

// Consume waits for and acknowledges the next event.
func (p *Publisher[T]) Consume(ctx context.Context) (*Event[T], error) {
	msg, err := p.queue.Consume(ctx)
	if err != nil || msg == nil {
		return nil, err
	}
	if err = msg.Ack(); err != nil {
		return nil, err
	}
	return msg.T(), nil
}

// DeadLetters returns the number of events the queue gave up redelivering,
// or 0 when the queue keeps no dead letters.
func (p *Publisher[T]) DeadLetters() int {
	if q, ok := p.queue.(interface{ DLQSize() int }); ok {
		return q.DLQSize()
	}
	return 0
}
