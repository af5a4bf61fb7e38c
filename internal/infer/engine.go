// Package infer defines the boundary to the external tensor-execution
// runtime. The daemon never reimplements tokenization or tensor math; it
// drives an Engine through the narrow interfaces below.
//
// Build tags and runtimes:
//
//   - Default build: a fail-fast stub (engine_stub.go). Loading any model
//     reports an unavailable-engine error, so pods stay configured but
//     reject requests with 503. No mocked inference in production builds.
//   - `-tags=onnx`: ONNX Runtime via onnxruntime_go for the forward pass
//     and HuggingFace tokenizers for Encode/Decode (engine_onnx.go).
package infer

import "context"

// Engine loads model weights and yields handles for token-level execution.
type Engine interface {
	// Load opens the weight file at path. contextLength is the maximum
	// total sequence length a Forward call will ever receive.
	Load(path string, contextLength int) (ModelHandle, error)
}

// ModelHandle is a loaded model. Forward is safe for concurrent use;
// Close requires exclusive access.
type ModelHandle interface {
	// Encode converts text to token ids.
	Encode(text string) ([]int, error)
	// Decode converts token ids back to text.
	Decode(tokens []int) (string, error)
	// Forward runs one forward pass and returns next-token logits for the
	// last position. Implementations must return promptly when ctx is done.
	Forward(ctx context.Context, tokens []int) ([]float32, error)
	// EOS returns the end-of-sequence token id.
	EOS() int
	// Close releases the underlying runtime resources.
	Close() error
}

// BatchModelHandle is implemented by runtimes that can serve several
// sequences in one invocation. The scheduler groups same-pod requests into
// a lockstep decode only when the handle supports this.
type BatchModelHandle interface {
	ModelHandle
	ForwardBatch(ctx context.Context, seqs [][]int) ([][]float32, error)
}

// unavailableError signals that the engine runtime is not present in this
// build, so the HTTP layer can return 503 instead of 500.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailable-engine error.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing engine runtime.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
