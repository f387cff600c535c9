package xkernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/xkernel/internal/halt"
	"github.com/viant/xkernel/internal/idgen"
	"github.com/viant/xkernel/model"
	"github.com/viant/xkernel/service/dao/process/memory"
	"github.com/viant/xkernel/service/dao/snapshot"
	sfs "github.com/viant/xkernel/service/dao/snapshot/fs"
	smemory "github.com/viant/xkernel/service/dao/snapshot/memory"
	"github.com/viant/xkernel/service/event"
	"github.com/viant/xkernel/service/ipc"
	"github.com/viant/xkernel/service/messaging"
	mmemory "github.com/viant/xkernel/service/messaging/memory"
	"github.com/viant/xkernel/service/processor"
	"github.com/viant/xkernel/service/scheduler"
	"github.com/viant/xkernel/service/semaphore"
	"github.com/viant/xkernel/service/wait"
	"github.com/viant/xkernel/stats"
	"github.com/viant/xkernel/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Version is reported to the tracing provider.
const Version = "0.1.0"

// StatusKilled is the exit status recorded for a killed process.
const StatusKilled = -9

// HaltInfo describes a kernel halt.
type HaltInfo = halt.Info

// ErrHalted is returned by Dispatch once the kernel has halted.
var ErrHalted = errors.New("kernel: halted")

// Service is the kernel: it owns the process table and wires the scheduler,
// message passing, semaphores and wait/reap together.
type Service struct {
	config    *Config
	bootID    string
	logger    zerolog.Logger
	hooks     []scheduler.Hook
	selectors []scheduler.Selector

	sched     *scheduler.Service
	table     *memory.Service
	ipc       *ipc.Service
	sems      *semaphore.Service
	waits     *wait.Service
	processor *processor.Service
	stats     *stats.Stats

	statsListener func(stats.Counters)

	events    *event.Service
	lifecycle *event.Publisher[event.Lifecycle]
	snapshots snapshot.Service

	tracingService  string
	tracingVersion  string
	tracingExporter sdktrace.SpanExporter
}

// New creates a kernel from the default configuration.
func New(options ...Option) (*Service, error) {
	return NewFromConfig(DefaultConfig(), options...)
}

// NewFromConfig creates a kernel from config; options apply on top of it.
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cloned := *config
	s := &Service{
		config:         &cloned,
		logger:         zerolog.Nop(),
		tracingService: "xkernel",
		tracingVersion: Version,
	}
	for _, opt := range options {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernel config: %w", err)
	}
	if s.bootID == "" {
		s.bootID = idgen.New()
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	cfg := s.config
	s.logger = s.logger.With().Str("boot", s.bootID).Logger()
	s.stats = stats.New(s.bootID)
	s.stats.OnChange(s.statsListener)

	var err error
	s.sched, err = scheduler.New(
		scheduler.WithCores(cfg.Scheduler.Cores),
		scheduler.WithLogger(s.logger.With().Str("component", "scheduler").Logger()),
		scheduler.WithHooks(append([]scheduler.Hook{s.stats.Hook()}, s.hooks...)...),
		scheduler.WithSelectors(s.selectors...),
	)
	if err != nil {
		return err
	}
	s.table = memory.New(
		memory.WithBuckets(cfg.ProcessTable.Buckets),
		memory.WithStateReader(func(p *model.Descriptor) model.State {
			state, _ := s.sched.StateOf(p)
			return state
		}),
	)
	s.ipc = ipc.New(s.sched, s.table,
		ipc.WithBuckets(cfg.IPC.Buckets),
		ipc.WithMaxMessageBytes(cfg.IPC.MaxMessageBytes),
		ipc.WithLogger(s.logger.With().Str("component", "ipc").Logger()),
	)
	s.sems = semaphore.New(s.sched, s.table,
		semaphore.WithLogger(s.logger.With().Str("component", "semaphore").Logger()))
	s.waits = wait.New(s.sched,
		wait.WithBuckets(cfg.Wait.Buckets),
		wait.WithReaper(s.reap),
		wait.WithLogger(s.logger.With().Str("component", "wait").Logger()),
	)
	s.processor, err = processor.New(s,
		processor.WithCores(cfg.Scheduler.Cores),
		processor.WithTick(cfg.Processor.Tick),
		processor.WithLogger(s.logger.With().Str("component", "processor").Logger()),
	)
	if err != nil {
		return err
	}
	if err = s.initEvents(); err != nil {
		return err
	}
	if err = s.initSnapshots(); err != nil {
		return err
	}
	return s.initTracing()
}

func (s *Service) initEvents() error {
	if s.events == nil && s.config.Events.Enabled {
		buffer := s.config.Events.Buffer
		events, err := event.New(messaging.VendorMemory,
			event.WithLogger(s.logger.With().Str("component", "event").Logger()),
			event.WithNewMemoryQueueConfig(func(string) mmemory.Config {
				cfg := mmemory.DefaultConfig()
				cfg.QueueBuffer = buffer
				return cfg
			}))
		if err != nil {
			return err
		}
		s.events = events
	}
	if s.events == nil {
		return nil
	}
	publisher, err := event.PublisherOf[event.Lifecycle](s.events)
	if err != nil {
		return err
	}
	s.lifecycle = publisher
	return nil
}

func (s *Service) initSnapshots() error {
	if s.snapshots != nil {
		return nil
	}
	if URL := s.config.Snapshot.URL; URL != "" {
		store, err := sfs.New(URL, sfs.WithLogger(s.logger.With().Str("component", "snapshot").Logger()))
		if err != nil {
			return err
		}
		s.snapshots = store
		return nil
	}
	s.snapshots = smemory.New()
	return nil
}

func (s *Service) initTracing() error {
	if !s.config.Tracing.Enabled {
		return nil
	}
	if s.tracingExporter != nil {
		return tracing.InitWithExporter(s.tracingService, s.tracingVersion, s.tracingExporter)
	}
	return tracing.Init(s.tracingService, s.tracingVersion, s.config.Tracing.Output)
}

// Config returns a copy of the effective configuration.
func (s *Service) Config() Config { return *s.config }

// BootID returns the kernel instance id.
func (s *Service) BootID() string { return s.bootID }

// Scheduler returns the scheduler.
func (s *Service) Scheduler() *scheduler.Service { return s.sched }

// IPC returns the message-passing subsystem.
func (s *Service) IPC() *ipc.Service { return s.ipc }

// Semaphores returns the semaphore table.
func (s *Service) Semaphores() *semaphore.Service { return s.sems }

// Waits returns the wait/reap subsystem.
func (s *Service) Waits() *wait.Service { return s.waits }

// Processes returns the process table.
func (s *Service) Processes() *memory.Service { return s.table }

// Snapshots returns the snapshot store.
func (s *Service) Snapshots() snapshot.Service { return s.snapshots }

// Events returns the lifecycle event service, or nil when events are off.
func (s *Service) Events() *event.Service { return s.events }

// Stats returns a copy of the kernel counters.
func (s *Service) Stats() stats.Counters { return s.stats.Snapshot() }

// Lookup returns the descriptor of pid.
func (s *Service) Lookup(pid model.Pid) (*model.Descriptor, bool) {
	return s.table.Lookup(pid)
}

// Start runs one worker per core until Shutdown.
func (s *Service) Start(ctx context.Context) error {
	return s.processor.Start(ctx)
}

// Shutdown stops the core workers and event listeners.
func (s *Service) Shutdown() error {
	err := s.processor.Shutdown()
	if s.lifecycle != nil {
		if n := s.lifecycle.DeadLetters(); n > 0 {
			s.logger.Warn().Int("deadLetters", n).Msg("lifecycle events abandoned by listeners")
		}
	}
	if s.events != nil {
		s.events.Close()
	}
	return err
}

// RunOnce delivers one timer interrupt to every core, in core order, on the
// caller's goroutine.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.processor.RunOnce(ctx)
}
