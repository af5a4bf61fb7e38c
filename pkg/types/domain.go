package types

// Model represents a configured model weight file and its runtime state.
type Model struct {
	// Stable identifier (the config key).
	// example: airoboros
	ID string `json:"id" example:"airoboros"`
	// Human-friendly name.
	// example: Airoboros 70B
	Name string `json:"name" example:"Airoboros 70B"`
	// Absolute path to the weight file on disk.
	// example: /home/user/models/airoboros-70b.onnx
	Path string `json:"path" example:"/home/user/models/airoboros-70b.onnx"`
	// Maximum total tokens (prompt + generated) per request.
	// example: 8192
	ContextLength int `json:"context_length" example:"8192"`
	// Maximum tokens generated per request.
	// example: 1024
	PredictLength int `json:"predict_length" example:"1024"`
	// Load state: unloaded, loading, ready or error.
	// example: ready
	State string `json:"state" example:"ready"`
	// Last load error, if any.
	Error string `json:"error,omitempty"`
}

// RequestState is the lifecycle state of a generation request.
type RequestState string

const (
	StateAdmitted  RequestState = "admitted"
	StateQueued    RequestState = "queued"
	StateRunning   RequestState = "running"
	StateCompleted RequestState = "completed"
	StateTimedOut  RequestState = "timed_out"
	StateRejected  RequestState = "rejected"
	StateFailed    RequestState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s RequestState) Terminal() bool {
	switch s {
	case StateCompleted, StateTimedOut, StateRejected, StateFailed:
		return true
	}
	return false
}
