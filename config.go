package xkernel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/xkernel/service/scheduler"
	"gopkg.in/yaml.v3"
)

// Config is the serialisable kernel configuration. DefaultConfig values
// apply to anything a loaded document leaves out.
type Config struct {
	Scheduler    SchedulerConfig    `json:"scheduler" yaml:"scheduler"`
	Processor    ProcessorConfig    `json:"processor" yaml:"processor"`
	IPC          IPCConfig          `json:"ipc" yaml:"ipc"`
	Wait         WaitConfig         `json:"wait" yaml:"wait"`
	ProcessTable ProcessTableConfig `json:"processTable" yaml:"processTable"`
	Events       EventsConfig       `json:"events" yaml:"events"`
	Tracing      TracingConfig      `json:"tracing" yaml:"tracing"`
	Snapshot     SnapshotConfig     `json:"snapshot" yaml:"snapshot"`
}

type SchedulerConfig struct {
	Cores int `json:"cores" yaml:"cores"`
}

type ProcessorConfig struct {
	Tick time.Duration `json:"tick" yaml:"tick"`
}

type IPCConfig struct {
	Buckets         int `json:"buckets" yaml:"buckets"`
	MaxMessageBytes int `json:"maxMessageBytes" yaml:"maxMessageBytes"`
}

type WaitConfig struct {
	Buckets int `json:"buckets" yaml:"buckets"`
}

type ProcessTableConfig struct {
	Buckets int `json:"buckets" yaml:"buckets"`
}

type EventsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Buffer  int  `json:"buffer" yaml:"buffer"`
}

type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Output  string `json:"output" yaml:"output"`
}

// SnapshotConfig selects snapshot storage: an afs URL, or memory when empty.
type SnapshotConfig struct {
	URL string `json:"url" yaml:"url"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scheduler:    SchedulerConfig{Cores: 1},
		Processor:    ProcessorConfig{Tick: 10 * time.Millisecond},
		IPC:          IPCConfig{Buckets: 64, MaxMessageBytes: 64 << 10},
		Wait:         WaitConfig{Buckets: 64},
		ProcessTable: ProcessTableConfig{Buckets: 64},
		Events:       EventsConfig{Buffer: 256},
	}
}

// Validate returns the aggregated invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Scheduler.Cores < 1 || c.Scheduler.Cores > scheduler.MaxCores {
		errs = append(errs, fmt.Errorf("scheduler.cores must be in [1, %d]", scheduler.MaxCores))
	}
	if c.Processor.Tick <= 0 {
		errs = append(errs, fmt.Errorf("processor.tick must be > 0"))
	}
	if c.IPC.Buckets <= 0 {
		errs = append(errs, fmt.Errorf("ipc.buckets must be > 0"))
	}
	if c.IPC.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("ipc.maxMessageBytes must be > 0"))
	}
	if c.Wait.Buckets <= 0 {
		errs = append(errs, fmt.Errorf("wait.buckets must be > 0"))
	}
	if c.ProcessTable.Buckets <= 0 {
		errs = append(errs, fmt.Errorf("processTable.buckets must be > 0"))
	}
	if c.Events.Enabled && c.Events.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("events.buffer must be > 0"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML (or JSON) configuration from any afs URL.
func LoadConfig(ctx context.Context, URL string, options ...storage.Option) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", URL, err)
	}
	cfg := DefaultConfig()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", URL, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", URL, err)
	}
	return cfg, nil
}
