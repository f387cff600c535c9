package scheduler

import "github.com/rs/zerolog"

// Option configures the scheduler.
type Option func(s *Service)

// WithCores sets the number of cores (1..MaxCores).
func WithCores(cores int) Option {
	return func(s *Service) {
		s.cores = cores
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithHooks registers hooks at construction.
func WithHooks(hooks ...Hook) Option {
	return func(s *Service) {
		for _, hook := range hooks {
			s.nextHook++
			s.hooks = append(s.hooks, hookEntry{id: s.nextHook, hook: hook})
		}
	}
}

// WithSelectors registers selection overrides at construction.
func WithSelectors(selectors ...Selector) Option {
	return func(s *Service) {
		for _, selector := range selectors {
			s.nextHook++
			s.hooks = append(s.hooks, hookEntry{id: s.nextHook, selector: selector})
		}
	}
}
