package infer

// Options configures engine construction. Only the onnx build consumes
// these; the stub ignores them.
type Options struct {
	// Threads caps intra-op parallelism per forward pass.
	Threads int
	// EOS is the end-of-sequence token id. Tokenizer files do not carry
	// this reliably, so it is configuration.
	EOS int
}

// Defaults applied when Options fields are unset.
const (
	defaultThreads = 4
	defaultEOS     = 2
)

func (o Options) withDefaults() Options {
	if o.Threads <= 0 {
		o.Threads = defaultThreads
	}
	if o.EOS <= 0 {
		o.EOS = defaultEOS
	}
	return o
}
