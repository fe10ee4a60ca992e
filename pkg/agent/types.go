package agent

import "strings"

// Message represents a single entry in the conversation sent to the LLM.
type Message struct {
	Role       string                 `json:"role"`
	Content    string                 `json:"content"`
	ToolCalls  []ToolCall             `json:"tool_calls,omitempty"`
	ToolCallID string                 `json:"tool_call_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// TokenUsage tracks token consumption across a run.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates usage from a single LLM call.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// RunResult contains the outcome of a single agent run.
type RunResult struct {
	Response   string     `json:"response"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Usage      TokenUsage `json:"usage"`
	SessionKey string     `json:"session_key"`
	Iterations int        `json:"iterations"`
	Reflected  bool       `json:"reflected,omitempty"`
	Aborted    bool       `json:"aborted,omitempty"`
}

// IsRetryableError reports whether an LLM call failure is worth retrying.
// Rate limits, timeouts and upstream 5xx responses are transient; everything
// else (bad credentials, malformed requests) fails the run immediately.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	if strings.Contains(msg, "connection reset") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") || strings.Contains(msg, "eof") {
		return true
	}

	if strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "overloaded") {
		return true
	}

	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}

	return false
}

// EstimateTokens gives a rough token count for a message slice. One token is
// counted per four characters of content.
func EstimateTokens(messages []Message) int {
	totalChars := 0
	for _, msg := range messages {
		totalChars += len(msg.Content)
	}
	return (totalChars + 3) / 4
}
