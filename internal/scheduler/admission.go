package scheduler

import (
	"context"
	"fmt"
	"time"

	"boosterd/pkg/types"
)

// Submit validates a request against pod, model and budget and enqueues it
// FIFO on the pod's queue. On success the returned snapshot carries the id
// for polling. All validation failures happen before the request can block
// a worker, so a bad request never waits.
func (s *Scheduler) Submit(ctx context.Context, req types.GenerateRequest) (types.RequestStatus, error) {
	r, err := s.submit(ctx, req, nil)
	if err != nil {
		return types.RequestStatus{}, err
	}
	return r.Status(), nil
}

func (s *Scheduler) submit(ctx context.Context, req types.GenerateRequest, sink func(string)) (*Request, error) {
	if s.draining.Load() {
		return nil, tooBusyError{podID: req.Pod}
	}
	p, ok := s.pods[req.Pod]
	if !ok {
		return nil, podNotFoundError{id: req.Pod}
	}
	if p.invalidReason != "" {
		return nil, invalidPodError{id: p.ID, reason: p.invalidReason}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handle, mspec, err := s.reg.Get(p.Spec.Model)
	if err != nil {
		return nil, err
	}
	rendered, err := s.prompts.BuildPrompt(p.Spec.Prompt, req.System, req.Input)
	if err != nil {
		return nil, err
	}
	promptTokens, err := p.encodePrompt(handle, rendered)
	if err != nil {
		return nil, fmt.Errorf("encode prompt: %w", err)
	}

	// Budget: the prompt plus the prediction budget must fit the context
	// window. Rejection over truncation: a silently shortened prompt is
	// not the request the caller made.
	maxTokens := int(mspec.Predict)
	if req.MaxTokens > 0 && req.MaxTokens < maxTokens {
		maxTokens = req.MaxTokens
	}
	if len(promptTokens)+maxTokens > int(mspec.Context) {
		return nil, budgetError{msg: fmt.Sprintf(
			"prompt (%d tokens) plus predict budget (%d) exceeds context %d",
			len(promptTokens), maxTokens, mspec.Context)}
	}

	deadline := s.cfg.DefaultDeadline
	if req.DeadlineSeconds > 0 {
		deadline = time.Duration(req.DeadlineSeconds) * time.Second
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := time.Now()
	r := &Request{
		ID:           s.nextID(p.ID),
		Pod:          p.ID,
		promptTokens: promptTokens,
		maxTokens:    maxTokens,
		contextLen:   int(mspec.Context),
		seed:         seed,
		createdAt:    now,
		deadline:     now.Add(deadline),
		state:        types.StateAdmitted,
		sink:         sink,
		done:         make(chan struct{}),
	}
	s.track(r)
	requestsTotal.WithLabelValues(r.Pod, string(types.StateAdmitted)).Inc()
	s.pub.Publish(Event{Name: string(types.StateAdmitted), RequestID: r.ID, Pod: r.Pod})

	// Gauge moves before the send: a worker may take the request and Dec
	// the instant it lands on the channel.
	queueDepth.WithLabelValues(p.ID).Inc()
	select {
	case p.queue <- r:
		// A fast worker may already have marked the request running;
		// advance ignores the stale transition.
		s.mark(r, types.StateQueued)
	default:
		queueDepth.WithLabelValues(p.ID).Dec()
		s.finish(r, types.StateRejected, "queue full")
		return nil, tooBusyError{podID: p.ID}
	}
	return r, nil
}
