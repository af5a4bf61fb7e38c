package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"boosterd/internal/config"
	"boosterd/internal/infer"
)

// fakeEngine hands out fakeHandles and can be told to fail.
type fakeEngine struct {
	failWith error
	loads    int
}

func (f *fakeEngine) Load(path string, contextLength int) (infer.ModelHandle, error) {
	f.loads++
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &fakeHandle{}, nil
}

type fakeHandle struct {
	closed bool
}

func (h *fakeHandle) Encode(text string) ([]int, error) { return []int{1}, nil }
func (h *fakeHandle) Decode(tokens []int) (string, error) {
	return "", nil
}
func (h *fakeHandle) Forward(ctx context.Context, tokens []int) ([]float32, error) {
	return []float32{0}, nil
}
func (h *fakeHandle) EOS() int { return 0 }
func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

func weightFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "m.onnx")
	if err := os.WriteFile(p, []byte("weights"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func newTestRegistry(t *testing.T, eng infer.Engine, models map[string]config.Model) *Registry {
	t.Helper()
	r, err := New(eng, models, zerolog.Nop())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return r
}

func TestLoadAndGet(t *testing.T) {
	p := weightFile(t)
	r := newTestRegistry(t, &fakeEngine{}, map[string]config.Model{
		"m1": {Name: "M1", Path: p, Context: 2048, Predict: 256},
	})
	if err := r.Load("m1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	h, spec, err := r.Get("m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if h == nil || spec.Name != "M1" {
		t.Fatalf("unexpected handle/spec: %v %+v", h, spec)
	}
}

func TestLoadIsIdempotentWhenReady(t *testing.T) {
	eng := &fakeEngine{}
	r := newTestRegistry(t, eng, map[string]config.Model{
		"m1": {Path: weightFile(t), Context: 2048, Predict: 256},
	})
	if err := r.Load("m1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := r.Load("m1"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if eng.loads != 1 {
		t.Fatalf("expected 1 engine load, got %d", eng.loads)
	}
}

func TestLoadMissingPathIsolated(t *testing.T) {
	good := weightFile(t)
	r := newTestRegistry(t, &fakeEngine{}, map[string]config.Model{
		"good": {Path: good, Context: 2048, Predict: 256},
		"bad":  {Path: filepath.Join(t.TempDir(), "missing.onnx"), Context: 2048, Predict: 256},
	})
	r.LoadAll()
	if _, _, err := r.Get("good"); err != nil {
		t.Fatalf("good model should serve: %v", err)
	}
	_, _, err := r.Get("bad")
	if err == nil || !IsNotReady(err) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
	models := r.List()
	states := map[string]string{}
	for _, m := range models {
		states[m.ID] = m.State
	}
	if states["good"] != StateReady || states["bad"] != StateError {
		t.Fatalf("unexpected states: %v", states)
	}
}

func TestLoadEngineFailure(t *testing.T) {
	r := newTestRegistry(t, &fakeEngine{failWith: errors.New("corrupt weights")}, map[string]config.Model{
		"m1": {Path: weightFile(t), Context: 2048, Predict: 256},
	})
	if err := r.Load("m1"); err == nil {
		t.Fatalf("expected load error")
	}
	_, _, err := r.Get("m1")
	if !IsNotReady(err) {
		t.Fatalf("expected not-ready, got %v", err)
	}
}

func TestGetUnknown(t *testing.T) {
	r := newTestRegistry(t, &fakeEngine{}, nil)
	_, _, err := r.Get("ghost")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestGetBeforeLoad(t *testing.T) {
	r := newTestRegistry(t, &fakeEngine{}, map[string]config.Model{
		"m1": {Path: weightFile(t), Context: 2048, Predict: 256},
	})
	_, _, err := r.Get("m1")
	if !IsNotReady(err) {
		t.Fatalf("expected not-ready, got %v", err)
	}
}

func TestUnloadClosesHandle(t *testing.T) {
	r := newTestRegistry(t, &fakeEngine{}, map[string]config.Model{
		"m1": {Path: weightFile(t), Context: 2048, Predict: 256},
	})
	if err := r.Load("m1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	h, _, _ := r.Get("m1")
	if err := r.Unload("m1"); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if !h.(*fakeHandle).closed {
		t.Fatalf("handle not closed")
	}
	if _, _, err := r.Get("m1"); !IsNotReady(err) {
		t.Fatalf("expected not-ready after unload, got %v", err)
	}
	if r.AnyReady() {
		t.Fatalf("nothing should be ready")
	}
}

func TestCloseUnloadsAll(t *testing.T) {
	r := newTestRegistry(t, &fakeEngine{}, map[string]config.Model{
		"a": {Path: weightFile(t), Context: 1024, Predict: 128},
		"b": {Path: weightFile(t), Context: 1024, Predict: 128},
	})
	r.LoadAll()
	if !r.AnyReady() {
		t.Fatalf("expected ready models")
	}
	r.Close()
	if r.AnyReady() {
		t.Fatalf("expected all unloaded")
	}
}
