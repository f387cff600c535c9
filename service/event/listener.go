package event

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Listener hands every consumed event to a handler on its own goroutine.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	logger    zerolog.Logger
}

// NewListener creates a stopped listener.
func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), logger zerolog.Logger) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Stop ends consumption and waits for the goroutine to exit.
func (l *Listener[T]) Stop() {
	l.cancel()
	<-l.done
}

// Start begins consumption. An event whose handler panics is negatively
// acknowledged, so the queue redelivers it or moves it to its dead letters.
func (l *Listener[T]) Start() {
	go func() {
		defer close(l.done)
		for {
			msg, err := l.publisher.queue.Consume(l.ctx)
			if err != nil {
				if l.ctx.Err() != nil {
					return
				}
				l.logger.Error().Err(err).Msg("consume event")
				continue
			}
			if msg == nil {
				continue
			}
			if err = l.handle(msg.T()); err != nil {
				l.logger.Warn().Err(err).Msg("event handler failed")
				if err = msg.Nack(err); err != nil {
					l.logger.Error().Err(err).Msg("nack event")
				}
				continue
			}
			if err = msg.Ack(); err != nil {
				l.logger.Error().Err(err).Msg("ack event")
			}
		}
	}()
}

func (l *Listener[T]) handle(event *Event[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
	}()
	l.handler(event)
	return nil
}
