package sampling

import "math/rand"

// greedy deterministically selects the highest-probability token. Useful
// for evaluation pods where reproducibility beats diversity.
type greedy struct {
	name string
}

func (g greedy) Name() string { return g.name }

func (g greedy) NewSession(rng *rand.Rand) Session { return greedySession{} }

type greedySession struct{}

func (greedySession) Next(logits []float32) (int, error) {
	if len(logits) == 0 {
		return 0, samplingError{msg: "empty logits"}
	}
	return argmax(softmax(logits, 1.0)), nil
}
