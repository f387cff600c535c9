// Package processor drives the cores: one worker per core turns timer ticks
// into dispatches, each preempting the core's running process and stepping
// the next one.
package processor
