package processor

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures the processor.
type Option func(*Service)

// WithCores sets the number of core workers.
func WithCores(cores int) Option {
	return func(s *Service) {
		s.config.Cores = cores
	}
}

// WithTick sets the timer tick period.
func WithTick(tick time.Duration) Option {
	return func(s *Service) {
		s.config.Tick = tick
	}
}

// WithConfig sets the whole configuration.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
