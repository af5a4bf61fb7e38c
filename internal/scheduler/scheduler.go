package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"boosterd/internal/prompt"
	"boosterd/internal/registry"
	"boosterd/internal/sampling"
	"boosterd/pkg/types"
)

// Scheduler routes requests to pods and runs their generation loops.
type Scheduler struct {
	cfg     Config
	reg     *registry.Registry
	prompts *prompt.Engine
	pods    map[string]*Pod
	log     zerolog.Logger
	pub     EventPublisher

	mu       sync.Mutex
	requests map[string]*Request
	order    []string // admission order, for terminal pruning

	seq       atomic.Uint64
	draining  atomic.Bool
	stop      chan struct{}
	wg        sync.WaitGroup
	startTime time.Time
}

// New builds the scheduler from validated configuration. Strategy binding
// happens here, so an unknown sampling strategy is fatal at startup rather
// than a per-request surprise.
func New(cfg Config) (*Scheduler, error) {
	cfg = cfg.withDefaults()
	s := &Scheduler{
		cfg:       cfg,
		reg:       cfg.Registry,
		prompts:   cfg.Prompts,
		pods:      make(map[string]*Pod, len(cfg.Pods)),
		log:       cfg.Logger,
		pub:       cfg.Events,
		requests:  make(map[string]*Request),
		stop:      make(chan struct{}),
		startTime: time.Now(),
	}
	for id, pc := range cfg.Pods {
		strat, err := sampling.FromParams(pc.Sampling, cfg.Samplings[pc.Sampling])
		if err != nil {
			return nil, fmt.Errorf("pod %q: %w", id, err)
		}
		s.pods[id] = &Pod{
			ID:          id,
			Spec:        pc,
			strategy:    strat,
			queue:       make(chan *Request, cfg.MaxQueueDepth),
			promptCache: make(map[uint64][]int),
		}
	}
	s.checkGPUBudgets()
	return s, nil
}

// checkGPUBudgets marks pods with structurally invalid GPU declarations.
// An out-of-range entry invalidates that pod; overcommitting a physical
// GPU index across pods invalidates every pod sharing it.
func (s *Scheduler) checkGPUBudgets() {
	totals := map[int]int{}
	for _, p := range s.pods {
		for gpu, pct := range p.Spec.GPUs {
			if pct < 0 || pct > 100 {
				p.invalidReason = fmt.Sprintf("gpu %d allocation %d%% out of range", gpu, pct)
				break
			}
			totals[gpu] += pct
		}
	}
	for _, p := range s.pods {
		if p.invalidReason != "" {
			continue
		}
		for gpu := range p.Spec.GPUs {
			if totals[gpu] > 100 {
				p.invalidReason = fmt.Sprintf("gpu %d overcommitted: %d%% allocated across pods", gpu, totals[gpu])
				break
			}
		}
	}
	for _, p := range s.pods {
		if p.invalidReason != "" {
			s.log.Warn().Str("pod", p.ID).Str("reason", p.invalidReason).Msg("pod disabled")
		}
	}
}

// Start launches the per-pod worker pools.
func (s *Scheduler) Start() {
	for _, id := range s.podIDs() {
		p := s.pods[id]
		for i := 0; i < workerCount(p); i++ {
			s.wg.Add(1)
			go s.worker(p)
		}
	}
}

func workerCount(p *Pod) int {
	if p.Spec.Threads <= 0 {
		return 1
	}
	return p.Spec.Threads
}

// Shutdown drains the scheduler: new admissions are rejected, queued
// requests are failed out, and in-flight generations run to their own
// deadlines or until ctx expires.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.draining.Store(true)
	close(s.stop)
	for _, p := range s.pods {
	drain:
		for {
			select {
			case r := <-p.queue:
				queueDepth.WithLabelValues(p.ID).Dec()
				s.finish(r, types.StateRejected, "server shutting down")
			default:
				break drain
			}
		}
	}
	doneCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(doneCh)
	}()
	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lookup returns the polling view of a request.
func (s *Scheduler) Lookup(id string) (types.RequestStatus, bool) {
	s.mu.Lock()
	r, ok := s.requests[id]
	s.mu.Unlock()
	if !ok {
		return types.RequestStatus{}, false
	}
	return r.Status(), true
}

// track stores a request for polling and prunes the oldest terminal ones
// beyond the retention cap.
func (s *Scheduler) track(r *Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
	s.order = append(s.order, r.ID)
	if len(s.order) <= s.cfg.RetainTerminal {
		return
	}
	keep := s.order[:0]
	excess := len(s.order) - s.cfg.RetainTerminal
	for _, id := range s.order {
		old := s.requests[id]
		if excess > 0 && old != nil && old.State().Terminal() {
			delete(s.requests, id)
			excess--
			continue
		}
		keep = append(keep, id)
	}
	s.order = keep
}

// finish moves a request to a terminal state and publishes the transition.
func (s *Scheduler) finish(r *Request, state types.RequestState, errMsg string) {
	if !r.advance(state, errMsg) {
		return
	}
	requestsTotal.WithLabelValues(r.Pod, string(state)).Inc()
	s.pub.Publish(Event{Name: string(state), RequestID: r.ID, Pod: r.Pod})
	ev := s.log.Debug().Str("request", r.ID).Str("pod", r.Pod).Str("state", string(state))
	if errMsg != "" {
		ev = ev.Str("error", errMsg)
	}
	ev.Msg("request finished")
}

// mark moves a request to a non-terminal state and publishes the
// transition.
func (s *Scheduler) mark(r *Request, state types.RequestState) {
	if !r.advance(state, "") {
		return
	}
	requestsTotal.WithLabelValues(r.Pod, string(state)).Inc()
	s.pub.Publish(Event{Name: string(state), RequestID: r.ID, Pod: r.Pod})
}

func (s *Scheduler) podIDs() []string {
	ids := make([]string, 0, len(s.pods))
	for id := range s.pods {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
