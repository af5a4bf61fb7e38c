package scheduler

// Event records one request lifecycle transition.
// Minimal and stable: name + request/pod ids and optional fields.
type Event struct {
	Name      string
	RequestID string
	Pod       string
	Fields    map[string]any
}

// EventPublisher receives events from the scheduler. Implementations
// should be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
