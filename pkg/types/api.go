package types

// GenerateRequest is the body of POST /v1/generate.
type GenerateRequest struct {
	// Pod id to route the request to.
	// example: default
	Pod string `json:"pod" example:"default"`
	// User text to complete.
	// example: Write a haiku about the ocean.
	Input string `json:"input" example:"Write a haiku about the ocean."`
	// Optional system text overriding the pod template's default.
	System string `json:"system,omitempty"`
	// Cap on generated tokens; clamped to the model's predict length.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Per-request deadline in seconds; defaults to the server deadline.
	// example: 180
	DeadlineSeconds int `json:"deadline_seconds,omitempty" example:"180"`
	// If true, stream NDJSON token lines instead of returning a request id.
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// Random seed for reproducibility; 0 lets the server choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
}

// RequestStatus is the polling view of a request, returned by
// GET /v1/requests/{id} and (as a snapshot) by POST /v1/generate.
type RequestStatus struct {
	// Request identifier.
	// example: default-000001
	ID string `json:"id" example:"default-000001"`
	// Pod the request was admitted to.
	// example: default
	Pod string `json:"pod" example:"default"`
	// Lifecycle state.
	// example: running
	State RequestState `json:"state" example:"running"`
	// Partial or final generated text.
	Output string `json:"output"`
	// Number of tokens generated so far.
	// example: 17
	Tokens int `json:"tokens" example:"17"`
	// Error message for rejected/failed/timed-out requests.
	Error string `json:"error,omitempty"`
	// Admission time in unix seconds.
	// example: 1700000000
	CreatedAtUnix int64 `json:"created_at_unix" example:"1700000000"`
	// Absolute deadline in unix seconds.
	// example: 1700000180
	DeadlineUnix int64 `json:"deadline_unix" example:"1700000180"`
}

// PodStatus summarizes one pod for /pods and /status.
type PodStatus struct {
	// Pod id (the config key).
	// example: default
	ID string `json:"id" example:"default"`
	// Referenced model id.
	// example: airoboros
	Model string `json:"model" example:"airoboros"`
	// Referenced prompt template id.
	// example: chat
	Prompt string `json:"prompt" example:"chat"`
	// Sampling strategy name.
	// example: janus
	Sampling string `json:"sampling" example:"janus"`
	// Worker count for this pod.
	// example: 2
	Threads int `json:"threads" example:"2"`
	// Requests grouped into one model invocation.
	// example: 4
	Batch int `json:"batch" example:"4"`
	// GPU allocation percentages by physical GPU index.
	// example: [50,50]
	GPUs []int `json:"gpus"`
	// Requests waiting for a worker.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Requests currently generating.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Queue capacity before admission returns backpressure.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Reason this pod rejects all admissions, when structurally invalid.
	InvalidReason string `json:"invalid_reason,omitempty"`
}

// ModelsResponse wraps GET /models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// PodsResponse wraps GET /pods.
type PodsResponse struct {
	Pods []PodStatus `json:"pods"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Server id from config.
	// example: mac
	ServerID string `json:"server_id" example:"mac"`
	// Overall state: ready once any pod can serve, otherwise loading.
	// example: ready
	State string `json:"state" example:"ready"`
	// All configured pods.
	Pods []PodStatus `json:"pods"`
	// All configured models and their load state.
	Models []Model `json:"models"`
	// Requests tracked by the scheduler, including terminal ones retained
	// for polling.
	// example: 12
	TrackedRequests int `json:"tracked_requests" example:"12"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: pod not found: nope
	Error string `json:"error" example:"pod not found: nope"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
