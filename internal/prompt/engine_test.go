package prompt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC) }
}

func testTemplates() map[string]Template {
	return map[string]Template{
		"chat": {
			Name:      "chat",
			Locale:    "en",
			Base:      "Today is {DATE}.",
			System:    "SYSTEM: {SYSTEM}",
			User:      "USER: {USER}",
			Assistant: "ASSISTANT: {ASSISTANT}",
		},
	}
}

func TestRenderRoles(t *testing.T) {
	e := NewWithClock(testTemplates(), fixedClock())

	s, err := e.Render("chat", RoleSystem, map[string]string{PlaceholderSystem: "be terse"})
	require.NoError(t, err)
	assert.Equal(t, "SYSTEM: be terse", s)

	u, err := e.Render("chat", RoleUser, map[string]string{PlaceholderUser: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "USER: hello", u)

	a, err := e.Render("chat", RoleAssistant, map[string]string{PlaceholderAssistant: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ASSISTANT: hi", a)
}

func TestRenderDate(t *testing.T) {
	e := NewWithClock(map[string]Template{
		"d": {Name: "d", System: "It is {DATE}."},
	}, fixedClock())
	s, err := e.Render("d", RoleSystem, nil)
	require.NoError(t, err)
	assert.Equal(t, "It is March 15, 2024.", s)
}

func TestRenderIdempotent(t *testing.T) {
	e := NewWithClock(testTemplates(), fixedClock())
	subs := map[string]string{PlaceholderUser: "same input"}
	a, err := e.Render("chat", RoleUser, subs)
	require.NoError(t, err)
	b, err := e.Render("chat", RoleUser, subs)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderMissingPlaceholder(t *testing.T) {
	e := NewWithClock(testTemplates(), fixedClock())
	_, err := e.Render("chat", RoleUser, map[string]string{})
	require.Error(t, err)
	assert.True(t, IsTemplateError(err))
	assert.Contains(t, err.Error(), "{USER}")
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := New(testTemplates())
	_, err := e.Render("ghost", RoleUser, nil)
	require.Error(t, err)
	assert.True(t, IsTemplateError(err))
}

func TestRenderUnknownRole(t *testing.T) {
	e := New(testTemplates())
	_, err := e.Render("chat", Role("tool"), nil)
	require.Error(t, err)
	assert.True(t, IsTemplateError(err))
}

func TestUnknownBracesPassThrough(t *testing.T) {
	e := NewWithClock(map[string]Template{
		"j": {Name: "j", User: "literal {JSON} stays: {USER}"},
	}, fixedClock())
	s, err := e.Render("j", RoleUser, map[string]string{PlaceholderUser: "x"})
	require.NoError(t, err)
	assert.Equal(t, "literal {JSON} stays: x", s)
}

func TestBuildPrompt(t *testing.T) {
	e := NewWithClock(testTemplates(), fixedClock())
	p, err := e.BuildPrompt("chat", "be terse", "write a haiku")
	require.NoError(t, err)
	assert.Equal(t,
		"Today is March 15, 2024.\nSYSTEM: be terse\nUSER: write a haiku\nASSISTANT: ",
		p)
}

func TestBuildPromptSkipsEmptyFormats(t *testing.T) {
	e := New(map[string]Template{
		"bare": {Name: "bare", User: "Q: {PROMPT}"},
	})
	p, err := e.BuildPrompt("bare", "", "why")
	require.NoError(t, err)
	assert.Equal(t, "Q: why", p)
}
