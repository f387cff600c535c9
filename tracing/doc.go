// Package tracing wraps OpenTelemetry so kernel services can record a span
// per syscall without importing the SDK. Spans are no-ops until Init or
// InitWithExporter installs a provider.
package tracing
