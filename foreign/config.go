package foreign

import (
	"runtime"

	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/heap"
)

// Backend selects the memory behind the runtime's heap.
type Backend string

const (
	BackendLinear Backend = "linear"
	BackendWazero Backend = "wazero"
)

// DefaultQueueDepth bounds the executor task queue.
const DefaultQueueDepth = 10_000

// Config configures an ownership runtime.
type Config struct {
	Backend      Backend `toml:"backend" cbor:"backend"`
	InitialPages uint32  `toml:"initial_pages" cbor:"initial_pages"`
	MaxPages     uint32  `toml:"max_pages" cbor:"max_pages"`
	Workers      int     `toml:"workers" cbor:"workers"`
	QueueDepth   int     `toml:"queue_depth" cbor:"queue_depth"`
}

func DefaultConfig() Config {
	return Config{
		Backend:      BackendLinear,
		InitialPages: 1,
		MaxPages:     1024,
		Workers:      runtime.NumCPU(),
		QueueDepth:   DefaultQueueDepth,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.InitialPages == 0 {
		c.InitialPages = d.InitialPages
	}
	if c.MaxPages == 0 {
		c.MaxPages = d.MaxPages
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = d.QueueDepth
	}
	return c
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendLinear, BackendWazero:
	default:
		return errors.InvalidInput(errors.PhaseConfig, "unknown heap backend "+string(c.Backend))
	}
	if c.MaxPages > heap.MaxPages {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("max_pages %d exceeds %d", c.MaxPages, heap.MaxPages).
			Build()
	}
	if c.InitialPages > c.MaxPages {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("initial_pages %d exceeds max_pages %d", c.InitialPages, c.MaxPages).
			Build()
	}
	if c.Workers < 1 {
		return errors.InvalidInput(errors.PhaseConfig, "workers must be positive")
	}
	if c.QueueDepth < 1 {
		return errors.InvalidInput(errors.PhaseConfig, "queue_depth must be positive")
	}
	return nil
}
