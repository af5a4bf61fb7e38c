// Package scheduler binds incoming generation requests to pods and drives
// them through the token loop. It is structured into small files by
// concern:
//
//   - scheduler.go: core Scheduler type, constructor, lifecycle.
//   - config.go: Config and package defaults.
//   - types.go: Pod and Request state types.
//   - errors.go: error types and helpers (IsPodNotFound, IsTooBusy, ...).
//   - admission.go: validation, budget checks and FIFO enqueueing.
//   - worker.go: per-pod workers, the token loop, lockstep batching.
//   - stream.go: synchronous NDJSON streaming entry point.
//   - status.go: status reporting and request lookup.
//   - events.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//   - helpers.go: id generation and the prompt-token cache.
//
// External packages should treat this package as the orchestration layer
// and use public methods only (New, Start, Submit, Generate, Lookup,
// Status, Shutdown). Internal types are subject to change.
package scheduler
