package event

import (
	"github.com/rs/zerolog"
	"github.com/viant/xkernel/service/messaging/memory"
)

// Option configures the service.
type Option func(s *Service)

// WithNewMemoryQueueConfig sets the per-queue memory configuration.
func WithNewMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newConfig
	}
}

// WithLogger sets the listener logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
