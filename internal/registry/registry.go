// Package registry owns the set of loadable models and their handles.
// Lookups are read-shared; load and unload are exclusive per model name. A
// failed load marks that model unavailable and leaves the rest untouched.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"boosterd/internal/common/fsutil"
	"boosterd/internal/config"
	"boosterd/internal/infer"
	"boosterd/pkg/types"
)

// Load states per model.
const (
	StateUnloaded = "unloaded"
	StateLoading  = "loading"
	StateReady    = "ready"
	StateError    = "error"
)

type entry struct {
	id   string
	spec config.Model
	path string // expanded weight path

	mu     sync.Mutex // serializes load/unload for this name
	state  string
	err    string
	handle infer.ModelHandle
}

// Registry maps model ids to entries. The entries map is fixed at
// construction; only entry state mutates afterwards, so lookups take the
// read lock only long enough to fetch the pointer.
type Registry struct {
	mu      sync.RWMutex
	engine  infer.Engine
	entries map[string]*entry
	log     zerolog.Logger
}

// New builds a registry over the configured models. Nothing is loaded yet;
// call LoadAll (or Load per name) to bring models up.
func New(engine infer.Engine, models map[string]config.Model, log zerolog.Logger) (*Registry, error) {
	entries := make(map[string]*entry, len(models))
	for id, m := range models {
		path, err := fsutil.ExpandHome(m.Path)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", id, err)
		}
		entries[id] = &entry{id: id, spec: m, path: path, state: StateUnloaded}
	}
	return &Registry{engine: engine, entries: entries, log: log}, nil
}

// notFoundError reports an id missing from the registry entirely.
type notFoundError struct{ id string }

func (e notFoundError) Error() string { return "model not found: " + e.id }

// IsNotFound reports whether err indicates an unknown model id.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// ErrNotFound constructs a model-not-found error.
func ErrNotFound(id string) error { return notFoundError{id: id} }

// notReadyError reports a known model without a usable handle.
type notReadyError struct {
	id    string
	cause string
}

func (e notReadyError) Error() string {
	if e.cause == "" {
		return "model not loaded: " + e.id
	}
	return "model unavailable: " + e.id + ": " + e.cause
}

// IsNotReady reports whether err indicates a model that exists but cannot
// serve (unloaded or failed to load).
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}

func (r *Registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	return e, ok
}

// Load brings one model up. Safe to call again after a failure; a model
// already ready is a no-op.
func (r *Registry) Load(id string) error {
	e, ok := r.get(id)
	if !ok {
		return notFoundError{id: id}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateReady {
		return nil
	}
	e.state = StateLoading
	e.err = ""
	if err := fsutil.CheckReadable(e.path); err != nil {
		e.state = StateError
		e.err = err.Error()
		return fmt.Errorf("load model %q: %w", id, err)
	}
	h, err := r.engine.Load(e.path, int(e.spec.Context))
	if err != nil {
		e.state = StateError
		e.err = err.Error()
		if infer.IsUnavailable(err) {
			return err
		}
		return fmt.Errorf("load model %q: %w", id, err)
	}
	e.handle = h
	e.state = StateReady
	r.log.Info().Str("model", id).Str("path", e.path).Msg("model loaded")
	return nil
}

// LoadAll loads every configured model, logging failures instead of
// aborting: one unreadable weight file must not take the others down.
func (r *Registry) LoadAll() {
	for _, id := range r.ids() {
		if err := r.Load(id); err != nil {
			r.log.Warn().Str("model", id).Err(err).Msg("model load failed")
		}
	}
}

// Get returns the handle and spec for a ready model.
func (r *Registry) Get(id string) (infer.ModelHandle, config.Model, error) {
	e, ok := r.get(id)
	if !ok {
		return nil, config.Model{}, notFoundError{id: id}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return nil, config.Model{}, notReadyError{id: id, cause: e.err}
	}
	return e.handle, e.spec, nil
}

// Unload releases one model's handle.
func (r *Registry) Unload(id string) error {
	e, ok := r.get(id)
	if !ok {
		return notFoundError{id: id}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle != nil {
		if err := e.handle.Close(); err != nil {
			r.log.Warn().Str("model", id).Err(err).Msg("model close failed")
		}
		e.handle = nil
	}
	e.state = StateUnloaded
	e.err = ""
	return nil
}

// Close unloads everything. Called on shutdown.
func (r *Registry) Close() {
	for _, id := range r.ids() {
		_ = r.Unload(id)
	}
}

// List returns a sorted snapshot of all models and their states.
func (r *Registry) List() []types.Model {
	out := make([]types.Model, 0, len(r.entries))
	for _, id := range r.ids() {
		e := r.entries[id]
		e.mu.Lock()
		out = append(out, types.Model{
			ID:            e.id,
			Name:          e.spec.Name,
			Path:          e.path,
			ContextLength: int(e.spec.Context),
			PredictLength: int(e.spec.Predict),
			State:         e.state,
			Error:         e.err,
		})
		e.mu.Unlock()
	}
	return out
}

// AnyReady reports whether at least one model can serve.
func (r *Registry) AnyReady() bool {
	for _, e := range r.entries {
		e.mu.Lock()
		ready := e.state == StateReady
		e.mu.Unlock()
		if ready {
			return true
		}
	}
	return false
}

func (r *Registry) ids() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
