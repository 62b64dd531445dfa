package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Timeout:  5 * time.Second,
		SiteName: "atlas-test",
	}, zap.NewNop())
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestChatCompletionSuccess(t *testing.T) {
	var gotReq Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(completionBody("affirmative")))
	})

	reply, err := c.ChatCompletion(context.Background(), Request{
		Model: "anthropic/claude-3.5-sonnet",
		Messages: []Message{
			{Role: "system", Content: "You are O1."},
			{Role: "user", Content: "report status"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TextReply, reply.Kind)
	assert.Equal(t, "affirmative", reply.Text)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Nil(t, gotReq.Provider)
}

func TestChatCompletionSendsProviderPrefsWhenSet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasProvider := raw["provider"]
		assert.True(t, hasProvider)
		w.Write([]byte(completionBody("ok")))
	})

	_, err := c.ChatCompletion(context.Background(), Request{
		Model:    "google/gemini-2.0-flash",
		Messages: []Message{{Role: "user", Content: "q"}},
		Provider: &ProviderPrefs{Order: []string{"Google"}},
	})
	require.NoError(t, err)
}

func TestChatCompletionOmitsProviderWhenNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasProvider := raw["provider"]
		assert.False(t, hasProvider)
		w.Write([]byte(completionBody("ok")))
	})

	_, err := c.ChatCompletion(context.Background(), Request{
		Model:    "anthropic/claude-3.5-sonnet",
		Messages: []Message{{Role: "user", Content: "q"}},
	})
	require.NoError(t, err)
}

func TestChatCompletionNon2xxIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := c.ChatCompletion(context.Background(), Request{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestChatCompletionMalformedBodyIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := c.ChatCompletion(context.Background(), Request{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestChatCompletionTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(completionBody("too late")))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ChatCompletion(ctx, Request{Model: "m"})
	require.Error(t, err)
}

func TestChatCompletionMissingAPIKey(t *testing.T) {
	c := NewClient(Config{}, zap.NewNop())
	_, err := c.ChatCompletion(context.Background(), Request{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestClassifyVariants(t *testing.T) {
	t.Run("text reply", func(t *testing.T) {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(completionBody("hello")), &resp))
		reply := Classify(&resp)
		assert.Equal(t, TextReply, reply.Kind)
		assert.Equal(t, "hello", reply.Text)
	})

	t.Run("tool call attempt", func(t *testing.T) {
		body := `{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"c1","type":"function","function":{"name":"web_search","arguments":"{\"query\":\"latest news\"}"}}]}}]}`
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(body), &resp))
		reply := Classify(&resp)
		assert.Equal(t, ToolCallAttempt, reply.Kind)
		assert.Contains(t, reply.AttemptedQuery(), "web_search")
		assert.Contains(t, reply.AttemptedQuery(), "latest news")
	})

	t.Run("error envelope", func(t *testing.T) {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(`{"error":{"message":"model overloaded"}}`), &resp))
		reply := Classify(&resp)
		assert.Equal(t, ErrorReply, reply.Kind)
		assert.Equal(t, "model overloaded", reply.ErrMsg)
	})

	t.Run("no choices", func(t *testing.T) {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(`{"choices":[]}`), &resp))
		assert.Equal(t, ErrorReply, Classify(&resp).Kind)
	})

	t.Run("empty content without tool calls", func(t *testing.T) {
		var resp Response
		require.NoError(t, json.Unmarshal([]byte(completionBody("")), &resp))
		assert.Equal(t, ErrorReply, Classify(&resp).Kind)
	})
}
