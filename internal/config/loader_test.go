package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
id: mac
host: 0.0.0.0
port: 9090
deadline: 120
debug: true

pods:
  default:
    model: airoboros
    prompt: chat
    sampling: janus
    threads: 2
    gpus: [ 100 ]
    batch: 4

models:
  airoboros:
    name: Airoboros 70B
    path: /models/airoboros.onnx
    context: 8K
    predict: 1K

prompts:
  chat:
    locale: en
    prompt: "Today is {DATE}."
    system: "SYSTEM: {SYSTEM}"
    user: "USER: {USER}"
    assistant: "ASSISTANT: {ASSISTANT}"

samplings:
  janus:
    janus: 1
    depth: 200
    scale: 0.97
    hi: 0.99
    lo: 0.96
    temp: 0.8
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "booster.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.ID != "mac" || cfg.Port != 9090 || cfg.Deadline != 120 {
		t.Fatalf("unexpected top-level: %+v", cfg)
	}
	mdl := cfg.Models["airoboros"]
	if mdl.Context != 8192 {
		t.Fatalf("context=%d", mdl.Context)
	}
	if mdl.Predict != 1024 {
		t.Fatalf("predict=%d", mdl.Predict)
	}
	pod := cfg.Pods["default"]
	if pod.Threads != 2 || pod.Batch != 4 || len(pod.GPUs) != 1 || pod.GPUs[0] != 100 {
		t.Fatalf("unexpected pod: %+v", pod)
	}
	s := cfg.Samplings["janus"]
	if s["depth"] != 200 || s["temp"] != 0.8 {
		t.Fatalf("unexpected sampling: %+v", s)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	if _, err := Load(writeFile(t, "booster.ini", "x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateDanglingModel(t *testing.T) {
	cfg, err := Load(writeFile(t, "b.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := cfg.Pods["default"]
	p.Model = "ghost"
	cfg.Pods["default"] = p
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected dangling model error")
	}
}

func TestValidateDanglingPromptAndSampling(t *testing.T) {
	cfg, _ := Load(writeFile(t, "b.yaml", sampleYAML))
	p := cfg.Pods["default"]
	p.Prompt = "ghost"
	cfg.Pods["default"] = p
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected dangling prompt error")
	}
	cfg, _ = Load(writeFile(t, "b2.yaml", sampleYAML))
	p = cfg.Pods["default"]
	p.Sampling = "ghost"
	cfg.Pods["default"] = p
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected dangling sampling error")
	}
}

func TestValidateNoPods(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty pods")
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg, _ := Load(writeFile(t, "b.yaml", sampleYAML))
	p := cfg.Pods["default"]
	p.Threads = 0
	p.Batch = 0
	cfg.Pods["default"] = p
	cfg.Host = ""
	cfg.Port = 0
	cfg.Deadline = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Host != DefaultHost || cfg.Port != DefaultPort || cfg.Deadline != DefaultDeadline {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Pods["default"].Threads != 1 || cfg.Pods["default"].Batch != 1 {
		t.Fatalf("pod defaults not applied: %+v", cfg.Pods["default"])
	}
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want Size
		ok   bool
	}{
		{"8K", 8192, true},
		{"1k", 1024, true},
		{"2M", 2 * 1024 * 1024, true},
		{"512", 512, true},
		{" 4K ", 4096, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-1K", 0, false},
	}
	for _, c := range cases {
		got, err := ParseSize(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("ParseSize(%q)=%d,%v want %d", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParseSize(%q) expected error", c.in)
		}
	}
}
