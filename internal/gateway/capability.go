package gateway

import "strings"

// SupportsWebSearch reports whether a model has native web search. The check
// is a pattern match on the model identifier: Perplexity models always
// search, and Google Gemini models support grounding. Total over all inputs;
// unknown identifiers are simply false.
func SupportsWebSearch(model string) bool {
	m := strings.ToLower(model)
	if strings.Contains(m, "perplexity") {
		return true
	}
	return strings.Contains(m, "google") && strings.Contains(m, "gemini")
}

// WebSearchProviderPrefs returns routing preferences that pin a request to a
// capability-native backend, or nil when the model needs none. Perplexity
// searches natively with no routing hints; Google models are pinned to the
// Google provider so grounding is available.
func WebSearchProviderPrefs(model string) *ProviderPrefs {
	m := strings.ToLower(model)
	if strings.Contains(m, "google") && strings.Contains(m, "gemini") {
		return &ProviderPrefs{Order: []string{"Google"}, AllowFallbacks: false}
	}
	return nil
}
