package scheduler

import (
	"sort"
	"time"

	"boosterd/pkg/types"
)

// Status snapshots the full server state: pods with queue occupancy,
// models from the registry, and request tracking counters.
func (s *Scheduler) Status() types.StatusResponse {
	s.mu.Lock()
	tracked := len(s.requests)
	s.mu.Unlock()

	state := "loading"
	if s.Ready() {
		state = "ready"
	}
	return types.StatusResponse{
		ServerID:        s.cfg.ServerID,
		State:           state,
		Pods:            s.ListPods(),
		Models:          s.reg.List(),
		TrackedRequests: tracked,
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		ServerTimeUnix:  time.Now().Unix(),
	}
}

// ListPods returns the pod roster sorted by id.
func (s *Scheduler) ListPods() []types.PodStatus {
	out := make([]types.PodStatus, 0, len(s.pods))
	for _, id := range s.podIDs() {
		p := s.pods[id]
		out = append(out, types.PodStatus{
			ID:            p.ID,
			Model:         p.Spec.Model,
			Prompt:        p.Spec.Prompt,
			Sampling:      p.Spec.Sampling,
			Threads:       p.Spec.Threads,
			Batch:         p.Spec.Batch,
			GPUs:          p.Spec.GPUs,
			QueueLen:      len(p.queue),
			Inflight:      int(p.inflight.Load()),
			MaxQueueDepth: cap(p.queue),
			InvalidReason: p.invalidReason,
		})
	}
	return out
}

// ListModels returns the registry roster sorted by id.
func (s *Scheduler) ListModels() []types.Model {
	models := s.reg.List()
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// Ready reports whether at least one valid pod can actually serve: the
// pod must be structurally valid and its own model loaded. A ready model
// no pod references does not make the server ready.
func (s *Scheduler) Ready() bool {
	if s.draining.Load() {
		return false
	}
	for _, p := range s.pods {
		if p.invalidReason != "" {
			continue
		}
		if _, _, err := s.reg.Get(p.Spec.Model); err == nil {
			return true
		}
	}
	return false
}
