package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration document.
// Zero values mean "unspecified" and are replaced by defaults in Validate.
type Config struct {
	ID       string `json:"id" yaml:"id" toml:"id"`
	Host     string `json:"host" yaml:"host" toml:"host"`
	Port     int    `json:"port" yaml:"port" toml:"port"`
	Log      string `json:"log" yaml:"log" toml:"log"`
	Deadline int    `json:"deadline" yaml:"deadline" toml:"deadline"`
	Debug    bool   `json:"debug" yaml:"debug" toml:"debug"`

	Pods      map[string]Pod                `json:"pods" yaml:"pods" toml:"pods"`
	Models    map[string]Model              `json:"models" yaml:"models" toml:"models"`
	Prompts   map[string]Prompt             `json:"prompts" yaml:"prompts" toml:"prompts"`
	Samplings map[string]map[string]float64 `json:"samplings" yaml:"samplings" toml:"samplings"`
}

// Pod binds a model, a prompt template and a sampling strategy to a set of
// resource limits.
type Pod struct {
	Model    string `json:"model" yaml:"model" toml:"model"`
	Prompt   string `json:"prompt" yaml:"prompt" toml:"prompt"`
	Sampling string `json:"sampling" yaml:"sampling" toml:"sampling"`
	Threads  int    `json:"threads" yaml:"threads" toml:"threads"`
	GPUs     []int  `json:"gpus" yaml:"gpus" toml:"gpus"`
	Batch    int    `json:"batch" yaml:"batch" toml:"batch"`
}

// Model describes one loadable weight file.
type Model struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Path    string `json:"path" yaml:"path" toml:"path"`
	Context Size   `json:"context" yaml:"context" toml:"context"`
	Predict Size   `json:"predict" yaml:"predict" toml:"predict"`
}

// Prompt describes one prompt template.
type Prompt struct {
	Locale    string `json:"locale" yaml:"locale" toml:"locale"`
	Prompt    string `json:"prompt" yaml:"prompt" toml:"prompt"`
	System    string `json:"system" yaml:"system" toml:"system"`
	User      string `json:"user" yaml:"user" toml:"user"`
	Assistant string `json:"assistant" yaml:"assistant" toml:"assistant"`
}

// Size is a token count that accepts human strings like "8K" (8*1024) in
// addition to plain integers.
type Size int

// UnmarshalText implements encoding.TextUnmarshaler for the JSON and TOML
// decoders.
func (s *Size) UnmarshalText(text []byte) error {
	v, err := ParseSize(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalYAML handles both `context: 8K` and `context: 8192`.
// yaml.v3 does not consult encoding.TextUnmarshaler.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	return s.UnmarshalText([]byte(value.Value))
}

// ParseSize parses "8K" as 8192, "1M" as 1048576 and bare digits as-is.
func ParseSize(text string) (Size, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := 1
	switch t[len(t)-1] {
	case 'k', 'K':
		mult = 1024
		t = t[:len(t)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		t = t[:len(t)-1]
	}
	n, err := strconv.Atoi(strings.TrimSpace(t))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", text)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %q", text)
	}
	return Size(n * mult), nil
}
