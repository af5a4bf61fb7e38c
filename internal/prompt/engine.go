// Package prompt renders conversation turns from named templates.
// Rendering is pure: the only non-deterministic input is the clock behind
// {DATE}, which is injectable for tests.
package prompt

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Role selects which per-role format of a template to render.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Placeholders recognized inside template formats. Anything else between
// braces is left untouched.
const (
	PlaceholderDate      = "DATE"
	PlaceholderSystem    = "SYSTEM"
	PlaceholderUser      = "USER"
	PlaceholderPrompt    = "PROMPT"
	PlaceholderAssistant = "ASSISTANT"
)

var placeholderRe = regexp.MustCompile(`\{(DATE|SYSTEM|USER|PROMPT|ASSISTANT)\}`)

// Template is one named prompt template. Immutable after load.
type Template struct {
	Name      string
	Locale    string // metadata only, carried through
	Base      string // preamble prepended to every conversation
	System    string
	User      string
	Assistant string
}

// templateError marks a rendering failure (missing placeholder value).
type templateError struct{ msg string }

func (e templateError) Error() string { return e.msg }

// IsTemplateError reports whether err came from template rendering.
func IsTemplateError(err error) bool {
	_, ok := err.(templateError)
	return ok
}

// Engine holds the loaded templates.
type Engine struct {
	templates map[string]Template
	now       func() time.Time
}

// New builds an engine over the given templates using the wall clock.
func New(templates map[string]Template) *Engine {
	return &Engine{templates: templates, now: time.Now}
}

// NewWithClock is New with an injected clock, for deterministic tests.
func NewWithClock(templates map[string]Template, now func() time.Time) *Engine {
	return &Engine{templates: templates, now: now}
}

// Get returns a template by name.
func (e *Engine) Get(name string) (Template, bool) {
	t, ok := e.templates[name]
	return t, ok
}

// Render renders one role format of the named template. Every placeholder
// present in the format must be resolvable from subs (or the clock, for
// DATE); a missing value is a templateError.
func (e *Engine) Render(name string, role Role, subs map[string]string) (string, error) {
	t, ok := e.templates[name]
	if !ok {
		return "", templateError{msg: "unknown template: " + name}
	}
	var format string
	switch role {
	case RoleSystem:
		format = t.System
	case RoleUser:
		format = t.User
	case RoleAssistant:
		format = t.Assistant
	default:
		return "", templateError{msg: fmt.Sprintf("unknown role %q", role)}
	}
	return e.substitute(format, subs)
}

func (e *Engine) substitute(format string, subs map[string]string) (string, error) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(format, func(m string) string {
		key := strings.Trim(m, "{}")
		if key == PlaceholderDate {
			return e.now().Format("January 2, 2006")
		}
		v, ok := subs[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return m
		}
		return v
	})
	if missing != "" {
		return "", templateError{msg: "unresolved placeholder {" + missing + "}"}
	}
	return out, nil
}

// BuildPrompt assembles the full generation prompt for one request: the
// base preamble, the system turn, the user turn, and the assistant header
// that primes generation.
func (e *Engine) BuildPrompt(name, system, user string) (string, error) {
	t, ok := e.templates[name]
	if !ok {
		return "", templateError{msg: "unknown template: " + name}
	}
	subs := map[string]string{
		PlaceholderSystem:    system,
		PlaceholderUser:      user,
		PlaceholderPrompt:    user,
		PlaceholderAssistant: "",
	}
	var b strings.Builder
	for _, format := range []string{t.Base, t.System, t.User, t.Assistant} {
		if format == "" {
			continue
		}
		s, err := e.substitute(format, subs)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
