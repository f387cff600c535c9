package ipc

import "github.com/rs/zerolog"

// Option configures the service.
type Option func(s *Service)

// WithBuckets sets the mailbox hash bucket count.
func WithBuckets(buckets int) Option {
	return func(s *Service) {
		if buckets > 0 {
			s.buckets = buckets
		}
	}
}

// WithMaxMessageBytes bounds the payload the kernel copies per envelope.
func WithMaxMessageBytes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}
