package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"boosterd/internal/config"
	"boosterd/internal/prompt"
	"boosterd/internal/registry"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth  = 32
	defaultBatchWindow    = 5 * time.Millisecond
	defaultRetainTerminal = 1024
	defaultDeadline       = 180 * time.Second
)

// Config encapsulates all tunables for Scheduler construction.
type Config struct {
	ServerID  string
	Pods      map[string]config.Pod
	Samplings map[string]map[string]float64
	Registry  *registry.Registry
	Prompts   *prompt.Engine

	// DefaultDeadline bounds requests that do not override it.
	DefaultDeadline time.Duration
	// MaxQueueDepth caps queued requests per pod before backpressure.
	MaxQueueDepth int
	// BatchWindow is how long a worker waits to group same-pod requests
	// into one batched invocation.
	BatchWindow time.Duration
	// RetainTerminal caps how many terminal requests stay pollable.
	RetainTerminal int

	Logger zerolog.Logger
	Events EventPublisher
}

func (c Config) withDefaults() Config {
	if c.DefaultDeadline <= 0 {
		c.DefaultDeadline = defaultDeadline
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = defaultMaxQueueDepth
	}
	if c.BatchWindow <= 0 {
		c.BatchWindow = defaultBatchWindow
	}
	if c.RetainTerminal <= 0 {
		c.RetainTerminal = defaultRetainTerminal
	}
	if c.Events == nil {
		c.Events = noopPublisher{}
	}
	return c
}
