package scheduler

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"boosterd/internal/config"
	"boosterd/internal/sampling"
	"boosterd/pkg/types"
)

// Pod is a running worker group: one model + prompt + sampling binding with
// its admission queue.
type Pod struct {
	ID       string
	Spec     config.Pod
	strategy sampling.Strategy

	queue    chan *Request
	inflight atomic.Int64

	// invalidReason, when non-empty, makes every admission fail. Set once
	// at construction (structurally invalid GPU budget).
	invalidReason string

	// Encoded-prompt cache keyed by xxhash of the rendered prompt.
	cacheMu     sync.Mutex
	promptCache map[uint64][]int
}

// Request is one admitted generation request. The worker owns the token
// loop; everything mutable is guarded by mu so polling never races it.
type Request struct {
	ID  string
	Pod string

	promptTokens []int
	maxTokens    int
	contextLen   int
	seed         int64
	createdAt    time.Time
	deadline     time.Time

	mu     sync.Mutex
	state  types.RequestState
	output strings.Builder
	tokens int
	errMsg string
	sink   func(token string)

	done chan struct{}
}

// stateRank orders lifecycle states so transitions only ever move forward.
// A late "queued" arriving after the worker already set "running" is
// dropped instead of rewinding the request.
func stateRank(s types.RequestState) int {
	switch s {
	case types.StateAdmitted:
		return 0
	case types.StateQueued:
		return 1
	case types.StateRunning:
		return 2
	default: // terminal states
		return 3
	}
}

// advance moves the request to a later state. Terminal states are sticky:
// a request that timed out never becomes completed, even if the generation
// loop finishes afterwards.
func (r *Request) advance(to types.RequestState, errMsg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Terminal() || stateRank(to) <= stateRank(r.state) {
		return false
	}
	r.state = to
	if errMsg != "" {
		r.errMsg = errMsg
	}
	if to.Terminal() {
		close(r.done)
	}
	return true
}

// detachSink stops streaming delivery. Generation continues and the
// request stays pollable; only the live token feed is dropped. Must be
// called before a streaming caller's ResponseWriter becomes invalid.
func (r *Request) detachSink() {
	r.mu.Lock()
	r.sink = nil
	r.mu.Unlock()
}

// append records one generated token's text and returns the streaming sink
// to invoke outside the lock.
func (r *Request) append(text string) func(string) {
	r.mu.Lock()
	r.output.WriteString(text)
	r.tokens++
	sink := r.sink
	r.mu.Unlock()
	return sink
}

// Status snapshots the request for polling.
func (r *Request) Status() types.RequestStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return types.RequestStatus{
		ID:            r.ID,
		Pod:           r.Pod,
		State:         r.state,
		Output:        r.output.String(),
		Tokens:        r.tokens,
		Error:         r.errMsg,
		CreatedAtUnix: r.createdAt.Unix(),
		DeadlineUnix:  r.deadline.Unix(),
	}
}

// State returns the current lifecycle state.
func (r *Request) State() types.RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Done is closed when the request reaches a terminal state.
func (r *Request) Done() <-chan struct{} { return r.done }
