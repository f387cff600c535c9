package xkernel

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/xkernel/internal/halt"
	"github.com/viant/xkernel/service/dao/snapshot"
	"github.com/viant/xkernel/service/event"
	"github.com/viant/xkernel/service/scheduler"
	"github.com/viant/xkernel/stats"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures the kernel service.
type Option func(s *Service)

// WithConfig replaces the configuration; later options still apply on top.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			cloned := *config
			s.config = &cloned
		}
	}
}

// WithLogger sets the logger shared by every subsystem.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCores sets the number of cores.
func WithCores(cores int) Option {
	return func(s *Service) {
		s.config.Scheduler.Cores = cores
	}
}

// WithTick sets the timer interrupt period.
func WithTick(tick time.Duration) Option {
	return func(s *Service) {
		s.config.Processor.Tick = tick
	}
}

// WithBootID sets the kernel instance id used in events and stats.
func WithBootID(id string) Option {
	return func(s *Service) {
		s.bootID = id
	}
}

// WithHooks registers scheduler hooks at construction.
func WithHooks(hooks ...scheduler.Hook) Option {
	return func(s *Service) {
		s.hooks = append(s.hooks, hooks...)
	}
}

// WithSelectors registers scheduler selection overrides at construction.
func WithSelectors(selectors ...scheduler.Selector) Option {
	return func(s *Service) {
		s.selectors = append(s.selectors, selectors...)
	}
}

// WithStatsListener registers a callback receiving the counters after every
// change. It runs on the updating goroutine and must not block.
func WithStatsListener(listener func(stats.Counters)) Option {
	return func(s *Service) {
		s.statsListener = listener
	}
}

// WithSnapshotDAO sets the snapshot store.
func WithSnapshotDAO(dao snapshot.Service) Option {
	return func(s *Service) {
		s.snapshots = dao
	}
}

// WithEventService sets the lifecycle event service; events are published
// even when the configuration leaves them disabled.
func WithEventService(service *event.Service) Option {
	return func(s *Service) {
		s.events = service
	}
}

// WithTracing enables tracing with a stdout (or file) exporter.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		s.config.Tracing.Enabled = true
		s.config.Tracing.Output = outputFile
		s.tracingService = serviceName
		s.tracingVersion = serviceVersion
	}
}

// WithTracingExporter enables tracing with a custom exporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		s.config.Tracing.Enabled = true
		s.tracingService = serviceName
		s.tracingVersion = serviceVersion
		s.tracingExporter = exporter
	}
}

// WithHaltHandler installs the process-wide handler invoked on the first
// kernel halt.
func WithHaltHandler(fn func(info halt.Info)) Option {
	return func(s *Service) {
		halt.SetHandler(fn)
	}
}
