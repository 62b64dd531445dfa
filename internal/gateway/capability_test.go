package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportsWebSearch(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"perplexity/sonar-pro", true},
		{"Perplexity/SONAR", true},
		{"google/gemini-2.0-flash", true},
		{"Google/Gemini-Pro", true},
		{"anthropic/claude-3.5-sonnet", false},
		{"openai/gpt-4o", false},
		{"x-ai/grok-2", false},
		{"deepseek/deepseek-chat", false},
		{"google/palm-2", false}, // google without gemini
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, SupportsWebSearch(tt.model))
		})
	}
}

func TestWebSearchProviderPrefs(t *testing.T) {
	prefs := WebSearchProviderPrefs("google/gemini-2.0-flash")
	if assert.NotNil(t, prefs) {
		assert.Equal(t, []string{"Google"}, prefs.Order)
		assert.False(t, prefs.AllowFallbacks)
	}

	// Perplexity searches natively; no routing hint needed.
	assert.Nil(t, WebSearchProviderPrefs("perplexity/sonar-pro"))
}
