//go:build onnx

package infer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/daulet/tokenizers"
	ort "github.com/yalue/onnxruntime_go"
)

// onnxBuilt indicates whether this binary carries the real runtime.
const onnxBuilt = true

// Built reports whether the binary was compiled with a real engine.
func Built() bool { return onnxBuilt }

type onnxEngine struct {
	opts Options
}

// NewEngine returns an ONNX Runtime backed engine. A model directory is
// expected to hold the weight file plus a tokenizer.json alongside it.
func NewEngine(opts Options) Engine {
	return &onnxEngine{opts: opts.withDefaults()}
}

func (e *onnxEngine) Load(path string, contextLength int) (ModelHandle, error) {
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, ErrUnavailable(fmt.Sprintf("initialize onnx runtime: %v", err))
		}
	}
	tk, err := tokenizers.FromFile(filepath.Join(filepath.Dir(path), "tokenizer.json"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &onnxHandle{
		modelPath: path,
		ctxLen:    contextLength,
		tk:        tk,
		vocabSize: int(tk.VocabSize()),
		opts:      e.opts,
	}, nil
}

type onnxHandle struct {
	modelPath string
	ctxLen    int
	vocabSize int
	opts      Options

	mu sync.Mutex // tokenizer calls are not documented as goroutine-safe
	tk *tokenizers.Tokenizer
}

func (h *onnxHandle) Encode(text string) ([]int, error) {
	h.mu.Lock()
	ids, _ := h.tk.Encode(text, true)
	h.mu.Unlock()
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out, nil
}

func (h *onnxHandle) Decode(tokens []int) (string, error) {
	ids := make([]uint32, len(tokens))
	for i, t := range tokens {
		ids[i] = uint32(t)
	}
	h.mu.Lock()
	s := h.tk.Decode(ids, true)
	h.mu.Unlock()
	return s, nil
}

func (h *onnxHandle) EOS() int { return h.opts.EOS }

// Forward runs one forward pass over the sequence and returns the logits
// of the last position.
func (h *onnxHandle) Forward(ctx context.Context, tokens []int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty token sequence")
	}
	if len(tokens) > h.ctxLen {
		return nil, fmt.Errorf("sequence length %d exceeds context %d", len(tokens), h.ctxLen)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer options.Destroy()
	if err := options.SetIntraOpNumThreads(h.opts.Threads); err != nil {
		return nil, fmt.Errorf("set threads: %w", err)
	}

	inputData := make([]int64, len(tokens))
	for i, t := range tokens {
		inputData[i] = int64(t)
	}
	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(tokens))), inputData)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputData := make([]float32, len(tokens)*h.vocabSize)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(tokens)), int64(h.vocabSize)), outputData)
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	session, err := ort.NewAdvancedSession(
		h.modelPath,
		[]string{"input_ids"},
		[]string{"logits"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	logits := outputTensor.GetData()
	last := (len(tokens) - 1) * h.vocabSize
	out := make([]float32, h.vocabSize)
	copy(out, logits[last:last+h.vocabSize])
	return out, nil
}

func (h *onnxHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tk != nil {
		h.tk.Close()
		h.tk = nil
	}
	return nil
}
