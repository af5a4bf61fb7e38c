package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default values applied by Validate when the document leaves them unset.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 8080
	DefaultDeadline = 180 // seconds
	defaultThreads  = 1
	defaultBatch    = 1
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Validate applies defaults and checks every cross-reference in the
// document. Any error here is fatal at startup: a dangling reference would
// otherwise only surface on the first request to the broken pod.
func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Deadline <= 0 {
		c.Deadline = DefaultDeadline
	}
	if len(c.Pods) == 0 {
		return fmt.Errorf("config: no pods defined")
	}
	for id, p := range c.Pods {
		mdl, ok := c.Models[p.Model]
		if !ok {
			return fmt.Errorf("config: pod %q references unknown model %q", id, p.Model)
		}
		if strings.TrimSpace(mdl.Path) == "" {
			return fmt.Errorf("config: model %q has no path", p.Model)
		}
		if mdl.Context <= 0 {
			return fmt.Errorf("config: model %q has no context size", p.Model)
		}
		if mdl.Predict <= 0 {
			return fmt.Errorf("config: model %q has no predict size", p.Model)
		}
		if _, ok := c.Prompts[p.Prompt]; !ok {
			return fmt.Errorf("config: pod %q references unknown prompt %q", id, p.Prompt)
		}
		if _, ok := c.Samplings[p.Sampling]; !ok {
			return fmt.Errorf("config: pod %q references unknown sampling %q", id, p.Sampling)
		}
		if p.Threads == 0 {
			p.Threads = defaultThreads
		}
		if p.Threads < 0 {
			return fmt.Errorf("config: pod %q has negative threads", id)
		}
		if p.Batch == 0 {
			p.Batch = defaultBatch
		}
		if p.Batch < 0 {
			return fmt.Errorf("config: pod %q has negative batch", id)
		}
		c.Pods[id] = p
	}
	return nil
}
