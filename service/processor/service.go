package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config represents processor configuration.
type Config struct {
	// Cores is the number of core workers.
	Cores int
	// Tick is the timer interrupt period.
	Tick time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Cores: 1,
		Tick:  10 * time.Millisecond,
	}
}

// ErrRunning is returned when starting a processor twice.
var ErrRunning = errors.New("processor: already running")

// Dispatcher handles one timer interrupt on a core. A returned error is
// fatal and stops every worker.
type Dispatcher interface {
	Dispatch(ctx context.Context, core int) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, core int) error

// Dispatch calls fn.
func (fn DispatcherFunc) Dispatch(ctx context.Context, core int) error { return fn(ctx, core) }

// Service runs one worker per core.
type Service struct {
	config     Config
	dispatcher Dispatcher
	logger     zerolog.Logger

	mu     sync.Mutex
	group  *errgroup.Group
	cancel context.CancelFunc
}

// New creates a processor for dispatcher.
func New(dispatcher Dispatcher, options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig(), dispatcher: dispatcher, logger: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}
	if s.dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if s.config.Cores <= 0 {
		return nil, fmt.Errorf("cores must be > 0")
	}
	if s.config.Tick <= 0 {
		return nil, fmt.Errorf("tick must be > 0")
	}
	return s, nil
}

// Config returns the configuration.
func (s *Service) Config() Config { return s.config }

// Start launches the core workers; they run until Shutdown, ctx
// cancellation, or a fatal dispatch error.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(ctx)
	for core := 0; core < s.config.Cores; core++ {
		core := core
		group.Go(func() error { return s.run(groupCtx, core) })
	}
	s.group = group
	s.cancel = cancel
	s.logger.Info().Int("cores", s.config.Cores).Dur("tick", s.config.Tick).Msg("processor started")
	return nil
}

// Shutdown stops the workers and returns the first fatal error, if any.
func (s *Service) Shutdown() error {
	s.mu.Lock()
	group, cancel := s.group, s.cancel
	s.group, s.cancel = nil, nil
	s.mu.Unlock()
	if group == nil {
		return nil
	}
	cancel()
	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	s.logger.Info().Err(err).Msg("processor stopped")
	return err
}

// RunOnce dispatches every core once, in core order, on the caller's goroutine.
func (s *Service) RunOnce(ctx context.Context) error {
	for core := 0; core < s.config.Cores; core++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.dispatcher.Dispatch(ctx, core); err != nil {
			return fmt.Errorf("core %d: %w", core, err)
		}
	}
	return nil
}

func (s *Service) run(ctx context.Context, core int) error {
	ticker := time.NewTicker(s.config.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.dispatcher.Dispatch(ctx, core); err != nil {
				s.logger.Error().Err(err).Int("core", core).Msg("dispatch failed")
				return fmt.Errorf("core %d: %w", core, err)
			}
		}
	}
}
