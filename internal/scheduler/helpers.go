package scheduler

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"boosterd/internal/infer"
)

// promptCacheMax bounds the per-pod encoded-prompt cache. Eviction is
// crude (drop everything); prompts repeat heavily or not at all, so a
// smarter policy buys nothing here.
const promptCacheMax = 256

func (s *Scheduler) nextID(podID string) string {
	return fmt.Sprintf("%s-%06d", podID, s.seq.Add(1))
}

// encodePrompt tokenizes a rendered prompt, memoizing by content hash so
// repeated identical prompts skip the tokenizer.
func (p *Pod) encodePrompt(handle infer.ModelHandle, rendered string) ([]int, error) {
	key := xxhash.Sum64String(rendered)
	p.cacheMu.Lock()
	cached, ok := p.promptCache[key]
	p.cacheMu.Unlock()
	if ok {
		return cached, nil
	}
	tokens, err := handle.Encode(rendered)
	if err != nil {
		return nil, err
	}
	p.cacheMu.Lock()
	if len(p.promptCache) >= promptCacheMax {
		p.promptCache = make(map[uint64][]int)
	}
	p.promptCache[key] = tokens
	p.cacheMu.Unlock()
	return tokens, nil
}
