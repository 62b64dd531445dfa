package gateway

import "fmt"

// Message is one chat message in an outbound request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProviderPrefs biases OpenRouter's provider routing. Present on the wire
// only when capability-based routing is active.
type ProviderPrefs struct {
	Order          []string `json:"order"`
	AllowFallbacks bool     `json:"allow_fallbacks"`
}

// Request is the OpenRouter chat completion request body.
type Request struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Provider *ProviderPrefs `json:"provider,omitempty"`
}

// ToolCall is a tool invocation the model attempted. This system never
// executes tools; the call is surfaced to the user as a warning instead.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction names the function the model tried to call.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Response is the OpenRouter chat completion response body.
type Response struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role      string     `json:"role"`
			Content   string     `json:"content"`
			ToolCalls []ToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// ReplyKind tags the classified response variant.
type ReplyKind int

const (
	// TextReply carries normal completion text.
	TextReply ReplyKind = iota
	// ToolCallAttempt means the model tried to invoke a tool instead of
	// answering. Recoverable: the officer still participated.
	ToolCallAttempt
	// ErrorReply covers API error envelopes and empty payloads.
	ErrorReply
)

// Reply is the classified form of a gateway response. Classification happens
// once, immediately after receipt, so callers never sniff payload shapes.
type Reply struct {
	Kind      ReplyKind
	Text      string     // TextReply
	ToolCalls []ToolCall // ToolCallAttempt
	ErrMsg    string     // ErrorReply
}

// Classify reduces a raw response to its tagged variant.
func Classify(resp *Response) Reply {
	if resp.Error != nil {
		return Reply{Kind: ErrorReply, ErrMsg: resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return Reply{Kind: ErrorReply, ErrMsg: "no completion returned"}
	}
	msg := resp.Choices[0].Message
	if msg.Content == "" && len(msg.ToolCalls) > 0 {
		return Reply{Kind: ToolCallAttempt, ToolCalls: msg.ToolCalls}
	}
	if msg.Content == "" {
		return Reply{Kind: ErrorReply, ErrMsg: "empty response from model"}
	}
	return Reply{Kind: TextReply, Text: msg.Content}
}

// AttemptedQuery renders the first attempted tool call's arguments for the
// user-facing warning.
func (r Reply) AttemptedQuery() string {
	if len(r.ToolCalls) == 0 {
		return "N/A"
	}
	tc := r.ToolCalls[0]
	if tc.Function.Arguments == "" {
		return "N/A"
	}
	return fmt.Sprintf("%s(%s)", tc.Function.Name, tc.Function.Arguments)
}
