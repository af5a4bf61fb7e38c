// Package sampling implements the token-selection strategies pods dispatch
// through. The set of strategies is closed: unknown names are rejected when
// the configuration is bound, not at request time.
package sampling

import (
	"fmt"
	"math"
	"math/rand"
)

// Strategy builds per-request sessions for one named sampling algorithm.
type Strategy interface {
	Name() string
	// NewSession returns fresh per-request sampling state. rng drives the
	// stochastic draw; tests inject a seeded source.
	NewSession(rng *rand.Rand) Session
}

// Session consumes next-token logits and selects one token at a time.
// Sessions are owned by a single worker and are not goroutine-safe.
type Session interface {
	// Next picks the next token id from dense logits (index = token id).
	Next(logits []float32) (int, error)
}

// samplingError marks a degenerate input distribution. It never reaches
// callers of the generation loop: strategies fall back to argmax whenever a
// fallback exists, and only report an error for unusable input.
type samplingError struct{ msg string }

func (e samplingError) Error() string { return e.msg }

// IsSamplingError reports whether err came from a sampling session.
func IsSamplingError(err error) bool {
	_, ok := err.(samplingError)
	return ok
}

// FromParams binds one sampling config entry to a strategy. The strategy is
// selected by its marker key ("janus", "greedy"); remaining keys are
// strategy parameters. Unknown entries fail here so broken configs die at
// startup.
func FromParams(name string, params map[string]float64) (Strategy, error) {
	if _, ok := params["janus"]; ok {
		return newJanus(name, params)
	}
	if _, ok := params["greedy"]; ok {
		return greedy{name: name}, nil
	}
	return nil, fmt.Errorf("sampling %q: no known strategy key (want janus or greedy)", name)
}

// softmax converts logits to probabilities after dividing by temp.
// Max-subtraction keeps the exponentials stable.
func softmax(logits []float32, temp float64) []float64 {
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}
	probs := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		probs[i] = math.Exp(float64(l-maxLogit) / temp)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the index of the largest probability.
func argmax(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}
