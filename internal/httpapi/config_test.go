package httpapi

import "testing"

func TestSetMaxBodyBytes(t *testing.T) {
	defer SetMaxBodyBytes(0) // restore default

	SetMaxBodyBytes(42)
	if maxBodyBytes != 42 {
		t.Fatalf("maxBodyBytes = %d, want 42", maxBodyBytes)
	}
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("maxBodyBytes = %d, want default", maxBodyBytes)
	}
}

func TestSetCORSOptions_CopiesSlices(t *testing.T) {
	origins := []string{"https://example.com"}
	SetCORSOptions(true, origins, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)
	origins[0] = "mutated"
	if corsAllowedOrigins[0] != "https://example.com" {
		t.Fatalf("cors origins aliased caller slice: %v", corsAllowedOrigins)
	}
}
