package sampling

import (
	"fmt"
	"math/rand"
	"sort"
)

// JanusParams parameterizes the janus strategy: temperature scaling, a
// repetition penalty over a rolling window of recent selections, and a
// dual-bound cumulative-mass cutoff that trims both the greedy head and the
// noisy tail of the distribution.
type JanusParams struct {
	// Depth bounds how many prior selections the repetition window holds.
	Depth int
	// Scale multiplies the probability of tokens already in the window.
	Scale float64
	// Hi is the nucleus bound: candidates are dropped once the preceding
	// cumulative mass reaches Hi.
	Hi float64
	// Lo is the head bound: candidates wholly inside the top 1-Lo of
	// probability mass are dropped. Lo=1 disables the head cut.
	Lo float64
	// Temp divides logits before the softmax.
	Temp float64
}

type janus struct {
	name   string
	params JanusParams
}

func newJanus(name string, raw map[string]float64) (*janus, error) {
	p := JanusParams{Depth: 128, Scale: 1.0, Hi: 1.0, Lo: 1.0, Temp: 1.0}
	for k, v := range raw {
		switch k {
		case "janus":
			// strategy marker / version; nothing to bind
		case "depth":
			p.Depth = int(v)
		case "scale":
			p.Scale = v
		case "hi":
			p.Hi = v
		case "lo":
			p.Lo = v
		case "temp":
			p.Temp = v
		default:
			return nil, fmt.Errorf("sampling %q: unknown janus parameter %q", name, k)
		}
	}
	if p.Depth < 0 {
		return nil, fmt.Errorf("sampling %q: negative depth", name)
	}
	if p.Scale < 0 || p.Scale > 1 {
		return nil, fmt.Errorf("sampling %q: scale must be in [0,1]", name)
	}
	if p.Hi <= 0 || p.Hi > 1 || p.Lo <= 0 || p.Lo > 1 {
		return nil, fmt.Errorf("sampling %q: hi and lo must be in (0,1]", name)
	}
	if p.Temp <= 0 {
		return nil, fmt.Errorf("sampling %q: temp must be positive", name)
	}
	return &janus{name: name, params: p}, nil
}

func (j *janus) Name() string { return j.name }

func (j *janus) NewSession(rng *rand.Rand) Session {
	return &janusSession{params: j.params, rng: rng}
}

// janusSession is the per-request sampling state: the rolling window of the
// last Depth selected tokens.
type janusSession struct {
	params JanusParams
	rng    *rand.Rand
	window []int
}

func (s *janusSession) Next(logits []float32) (int, error) {
	if len(logits) == 0 {
		return 0, samplingError{msg: "empty logits"}
	}
	probs := softmax(logits, s.params.Temp)

	// Repetition penalty over the rolling window, then renormalize.
	if len(s.window) > 0 && s.params.Scale != 1.0 {
		seen := make(map[int]struct{}, len(s.window))
		for _, t := range s.window {
			seen[t] = struct{}{}
		}
		sum := 0.0
		for i := range probs {
			if _, ok := seen[i]; ok {
				probs[i] *= s.params.Scale
			}
			sum += probs[i]
		}
		if sum <= 0 {
			return 0, samplingError{msg: "distribution collapsed under repetition penalty"}
		}
		for i := range probs {
			probs[i] /= sum
		}
	}

	tok := s.draw(probs)
	s.remember(tok)
	return tok, nil
}

// draw applies the dual-bound cutoff and samples from the renormalized
// remainder. If the cutoff leaves nothing, it falls back to the single
// most probable token.
func (s *janusSession) draw(probs []float64) int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })

	headCut := 1.0 - s.params.Lo
	var kept []int
	keptMass := 0.0
	cum := 0.0
	for _, i := range idx {
		p := probs[i]
		if p <= 0 {
			break
		}
		before := cum
		cum += p
		if before >= s.params.Hi {
			break // tail cut: nucleus already full
		}
		if cum <= headCut {
			continue // head cut: still inside the trimmed top mass
		}
		kept = append(kept, i)
		keptMass += p
	}
	if len(kept) == 0 || keptMass <= 0 {
		return idx[0]
	}

	r := s.rng.Float64() * keptMass
	acc := 0.0
	for _, i := range kept {
		acc += probs[i]
		if r < acc {
			return i
		}
	}
	return kept[len(kept)-1]
}

func (s *janusSession) remember(tok int) {
	if s.params.Depth == 0 {
		return
	}
	s.window = append(s.window, tok)
	if len(s.window) > s.params.Depth {
		s.window = s.window[len(s.window)-s.params.Depth:]
	}
}
