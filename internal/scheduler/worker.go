package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"boosterd/internal/infer"
	"boosterd/internal/sampling"
	"boosterd/pkg/types"
)

// worker is one generation loop bound to a pod. It pulls requests FIFO
// from the pod queue and runs them to a terminal state. Pods with batch
// support and a batch-capable model handle run several requests in
// lockstep.
func (s *Scheduler) worker(p *Pod) {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case r := <-p.queue:
			queueDepth.WithLabelValues(p.ID).Dec()
			s.process(p, r)
		}
	}
}

func (s *Scheduler) process(p *Pod, r *Request) {
	handle, _, err := s.reg.Get(p.Spec.Model)
	if err != nil {
		s.finish(r, types.StateFailed, err.Error())
		return
	}
	if p.Spec.Batch > 1 {
		if bh, ok := handle.(infer.BatchModelHandle); ok {
			s.runBatch(p, bh, s.collectBatch(p, r))
			return
		}
	}
	s.runOne(p, handle, r)
}

// collectBatch holds the first request and drains up to batch-1 more from
// the queue within the batch window. Waiting longer would trade first
// request latency for throughput it was never asked for.
func (s *Scheduler) collectBatch(p *Pod, first *Request) []*Request {
	batch := []*Request{first}
	timer := time.NewTimer(s.cfg.BatchWindow)
	defer timer.Stop()
	for len(batch) < p.Spec.Batch {
		select {
		case r := <-p.queue:
			queueDepth.WithLabelValues(p.ID).Dec()
			batch = append(batch, r)
		case <-timer.C:
			return batch
		case <-s.stop:
			return batch
		}
	}
	return batch
}

// runOne generates tokens for a single request until EOS, budget, context
// exhaustion, deadline, or failure.
func (s *Scheduler) runOne(p *Pod, handle infer.ModelHandle, r *Request) {
	s.mark(r, types.StateRunning)
	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	rng := rand.New(rand.NewSource(r.seed))
	session := p.strategy.NewSession(rng)
	tokens := append([]int(nil), r.promptTokens...)

	ctx, cancel := context.WithDeadline(context.Background(), r.deadline)
	defer cancel()

	generated := 0
	for {
		if !time.Now().Before(r.deadline) {
			s.finish(r, types.StateTimedOut, "deadline exceeded")
			return
		}
		logits, err := handle.Forward(ctx, tokens)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				s.finish(r, types.StateTimedOut, "deadline exceeded")
				return
			}
			s.finish(r, types.StateFailed, err.Error())
			return
		}
		tok, err := session.Next(logits)
		if err != nil {
			s.finish(r, types.StateFailed, err.Error())
			return
		}
		if tok == handle.EOS() {
			s.finish(r, types.StateCompleted, "")
			return
		}
		tokens = append(tokens, tok)
		generated++
		text, err := handle.Decode([]int{tok})
		if err != nil {
			s.finish(r, types.StateFailed, err.Error())
			return
		}
		if sink := r.append(text); sink != nil {
			sink(text)
		}
		tokensTotal.WithLabelValues(p.ID).Inc()
		if generated >= r.maxTokens || len(tokens) >= r.contextLen {
			s.finish(r, types.StateCompleted, "")
			return
		}
	}
}

// batchSlot is one live request inside a lockstep batch.
type batchSlot struct {
	r         *Request
	session   sampling.Session
	tokens    []int
	generated int
}

// runBatch runs requests in lockstep: one ForwardBatch per step over the
// still-live slots, then per-slot sampling and retirement. A retired slot
// (done, timed out, failed) drops out of subsequent steps without
// disturbing the rest.
func (s *Scheduler) runBatch(p *Pod, handle infer.BatchModelHandle, batch []*Request) {
	slots := make([]*batchSlot, 0, len(batch))
	for _, r := range batch {
		s.mark(r, types.StateRunning)
		p.inflight.Add(1)
		slots = append(slots, &batchSlot{
			r:       r,
			session: p.strategy.NewSession(rand.New(rand.NewSource(r.seed))),
			tokens:  append([]int(nil), r.promptTokens...),
		})
	}
	defer p.inflight.Add(-int64(len(batch)))

	for len(slots) > 0 {
		now := time.Now()
		live := slots[:0]
		for _, sl := range slots {
			if !now.Before(sl.r.deadline) {
				s.finish(sl.r, types.StateTimedOut, "deadline exceeded")
				continue
			}
			live = append(live, sl)
		}
		slots = live
		if len(slots) == 0 {
			return
		}

		inputs := make([][]int, len(slots))
		earliest := slots[0].r.deadline
		for i, sl := range slots {
			inputs[i] = sl.tokens
			if sl.r.deadline.Before(earliest) {
				earliest = sl.r.deadline
			}
		}
		ctx, cancel := context.WithDeadline(context.Background(), earliest)
		all, err := handle.ForwardBatch(ctx, inputs)
		cancel()
		if err != nil {
			// A deadline here belongs to the earliest slot; the next
			// loop pass retires it and the rest continue.
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			for _, sl := range slots {
				s.finish(sl.r, types.StateFailed, err.Error())
			}
			return
		}

		live = slots[:0]
		for i, sl := range slots {
			tok, err := sl.session.Next(all[i])
			if err != nil {
				s.finish(sl.r, types.StateFailed, err.Error())
				continue
			}
			if tok == handle.EOS() {
				s.finish(sl.r, types.StateCompleted, "")
				continue
			}
			sl.tokens = append(sl.tokens, tok)
			sl.generated++
			text, err := handle.Decode([]int{tok})
			if err != nil {
				s.finish(sl.r, types.StateFailed, err.Error())
				continue
			}
			if sink := sl.r.append(text); sink != nil {
				sink(text)
			}
			tokensTotal.WithLabelValues(p.ID).Inc()
			if sl.generated >= sl.r.maxTokens || len(sl.tokens) >= sl.r.contextLen {
				s.finish(sl.r, types.StateCompleted, "")
				continue
			}
			live = append(live, sl)
		}
		slots = live
	}
}
