package scheduler

// podNotFoundError reports an unknown pod id at admission.
type podNotFoundError struct{ id string }

func (e podNotFoundError) Error() string { return "pod not found: " + e.id }

// ErrPodNotFound constructs a pod-not-found error.
func ErrPodNotFound(id string) error { return podNotFoundError{id: id} }

// IsPodNotFound reports whether err indicates an unknown pod id.
func IsPodNotFound(err error) bool {
	_, ok := err.(podNotFoundError)
	return ok
}

// tooBusyError signals queue overflow or a draining scheduler, for 429
// mapping.
type tooBusyError struct{ podID string }

func (e tooBusyError) Error() string { return "too busy: " + e.podID }

// ErrTooBusy constructs a backpressure error.
func ErrTooBusy(podID string) error { return tooBusyError{podID: podID} }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	_, ok := err.(tooBusyError)
	return ok
}

// budgetError reports a request whose prompt plus prediction budget does
// not fit the model's context window. Admission rejects these outright;
// silent truncation would change the prompt the caller asked for.
type budgetError struct{ msg string }

func (e budgetError) Error() string { return e.msg }

// ErrBudgetExceeded constructs a context-budget error.
func ErrBudgetExceeded(msg string) error { return budgetError{msg: msg} }

// IsBudgetExceeded reports whether err indicates a context-budget
// violation.
func IsBudgetExceeded(err error) bool {
	_, ok := err.(budgetError)
	return ok
}

// invalidPodError reports a pod whose resource declaration is structurally
// invalid (GPU allocation out of range or overcommitted). The pod stays
// registered; every admission is rejected with this error.
type invalidPodError struct {
	id     string
	reason string
}

func (e invalidPodError) Error() string { return "pod " + e.id + " unavailable: " + e.reason }

// IsPodInvalid reports whether err indicates a structurally invalid pod.
func IsPodInvalid(err error) bool {
	_, ok := err.(invalidPodError)
	return ok
}
