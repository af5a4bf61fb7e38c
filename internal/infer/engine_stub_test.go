//go:build !onnx

package infer

import "testing"

func TestStubEngineRefusesToLoad(t *testing.T) {
	eng := NewEngine(Options{})
	h, err := eng.Load("/nonexistent/model.onnx", 2048)
	if h != nil {
		t.Fatalf("expected nil handle")
	}
	if err == nil || !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if Built() {
		t.Fatalf("stub build must report Built()==false")
	}
}

func TestIsUnavailable(t *testing.T) {
	if IsUnavailable(nil) {
		t.Fatalf("nil is not unavailable")
	}
	if !IsUnavailable(ErrUnavailable("x")) {
		t.Fatalf("constructed error must match")
	}
}
