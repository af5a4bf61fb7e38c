//go:build !onnx

package infer

// This file provides the engine stub compiled when the 'onnx' build tag is
// NOT set, keeping default builds and CI free of native dependencies. The
// real engine lives in engine_onnx.go (tagged 'onnx').

// onnxBuilt indicates whether this binary carries the real runtime.
const onnxBuilt = false

// Built reports whether the binary was compiled with a real engine.
func Built() bool { return onnxBuilt }

type stubEngine struct{}

// NewEngine returns the engine for this build. Without the 'onnx' tag it
// refuses to load models rather than mock them.
func NewEngine(opts Options) Engine { return stubEngine{} }

func (stubEngine) Load(path string, contextLength int) (ModelHandle, error) {
	return nil, ErrUnavailable("onnx runtime not built (missing 'onnx' build tag)")
}
