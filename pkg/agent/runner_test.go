package agent

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/config"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/memory"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

// stubProvider replays a scripted sequence of responses and errors.
type stubProvider struct {
	script   []func() (*LLMResponse, error)
	requests []LLMRequest
}

func (s *stubProvider) Provider() string { return "stub" }

func (s *stubProvider) Call(ctx context.Context, request LLMRequest) (*LLMResponse, error) {
	s.requests = append(s.requests, request)
	if len(s.script) == 0 {
		return nil, errors.New("stub script exhausted")
	}
	step := s.script[0]
	s.script = s.script[1:]
	return step()
}

func respondWith(response *LLMResponse) func() (*LLMResponse, error) {
	return func() (*LLMResponse, error) { return response, nil }
}

func failWith(err error) func() (*LLMResponse, error) {
	return func() (*LLMResponse, error) { return nil, err }
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			Provider:    "openai",
			Model:       "test-model",
			Temperature: 0.5,
			MaxTokens:   256,
		},
		Agent: config.AgentConfig{
			SystemPrompt:  "You are a test assistant.",
			MaxIterations: 4,
			MaxRetries:    3,
		},
	}
}

func newTestRunner(t *testing.T, cfg *config.Config, provider LLMProvider) (*Runner, *toolexec.Registry) {
	t.Helper()

	registry := toolexec.NewRegistry()
	require.NoError(t, registry.Register(toolexec.ToolDefinition{
		Name:        "add",
		Description: "Add two numbers",
		Parameters: []toolexec.ToolParameter{
			{Name: "a", Type: "number", Description: "First operand", Required: true},
			{Name: "b", Type: "number", Description: "Second operand", Required: true},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			return params["a"].(float64) + params["b"].(float64), nil
		},
	}))

	dispatcher := toolexec.NewDispatcher(registry)
	return NewRunner(cfg, provider, dispatcher, zerolog.Nop()), registry
}

func TestRunner_PlainAnswer(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{
			Content: "The answer is 42.",
			Usage:   &TokenUsage{InputTokens: 10, OutputTokens: 5},
		}),
	}}
	runner, _ := newTestRunner(t, testConfig(), provider)

	result, err := runner.Run(context.Background(), RunParams{Prompt: "What is the answer?"})
	require.NoError(t, err)

	assert.Equal(t, "The answer is 42.", result.Response)
	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.ToolCalls)
	assert.NotEmpty(t, result.SessionKey)
	assert.Equal(t, 10, result.Usage.InputTokens)

	// Tool catalog travels with every request
	require.Len(t, provider.requests, 1)
	require.Len(t, provider.requests[0].Tools, 1)
	assert.Equal(t, "add", provider.requests[0].Tools[0]["name"])
}

func TestRunner_ToolCallLoop(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{
			ToolCalls: []ToolCall{
				{ID: "call_1", Name: "add", Parameters: map[string]interface{}{"a": 2.0, "b": 3.0}},
			},
			Usage: &TokenUsage{InputTokens: 10, OutputTokens: 4},
		}),
		respondWith(&LLMResponse{
			Content: "2 plus 3 is 5.",
			Usage:   &TokenUsage{InputTokens: 20, OutputTokens: 6},
		}),
	}}
	runner, _ := newTestRunner(t, testConfig(), provider)

	result, err := runner.Run(context.Background(), RunParams{Prompt: "add 2 and 3"})
	require.NoError(t, err)

	assert.Equal(t, "2 plus 3 is 5.", result.Response)
	assert.Equal(t, 2, result.Iterations)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "add", result.ToolCalls[0].Name)
	assert.Equal(t, 30, result.Usage.InputTokens)

	// The second request carries the tool result back to the model
	require.Len(t, provider.requests, 2)
	second := provider.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "5", last.Content)
}

func TestRunner_ToolErrorFedBack(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{
			ToolCalls: []ToolCall{
				{ID: "call_1", Name: "no_such_tool", Parameters: map[string]interface{}{}},
			},
		}),
		respondWith(&LLMResponse{Content: "I could not use that tool."}),
	}}
	runner, _ := newTestRunner(t, testConfig(), provider)

	result, err := runner.Run(context.Background(), RunParams{Prompt: "do something"})
	require.NoError(t, err)
	assert.Equal(t, "I could not use that tool.", result.Response)

	second := provider.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Contains(t, last.Content, "unknown_tool")
}

func TestRunner_RetriesTransientFailure(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		failWith(errors.New("429 rate limit")),
		respondWith(&LLMResponse{Content: "recovered"}),
	}}
	runner, _ := newTestRunner(t, testConfig(), provider)

	result, err := runner.Run(context.Background(), RunParams{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Response)
	assert.Len(t, provider.requests, 2)
}

func TestRunner_PermanentFailureNotRetried(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		failWith(errors.New("401 Unauthorized")),
	}}
	runner, _ := newTestRunner(t, testConfig(), provider)

	_, err := runner.Run(context.Background(), RunParams{Prompt: "hi"})
	require.Error(t, err)
	assert.Len(t, provider.requests, 1)
}

func TestRunner_MaxIterationsExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.Agent.MaxIterations = 2

	loop := respondWith(&LLMResponse{
		ToolCalls: []ToolCall{
			{ID: "call_x", Name: "add", Parameters: map[string]interface{}{"a": 1.0, "b": 1.0}},
		},
	})
	provider := &stubProvider{script: []func() (*LLMResponse, error){loop, loop, loop}}
	runner, _ := newTestRunner(t, cfg, provider)

	_, err := runner.Run(context.Background(), RunParams{Prompt: "loop forever"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum tool iterations")
}

func TestRunner_EmptyPromptRejected(t *testing.T) {
	provider := &stubProvider{}
	runner, _ := newTestRunner(t, testConfig(), provider)

	_, err := runner.Run(context.Background(), RunParams{Prompt: ""})
	assert.Error(t, err)
}

func TestRunner_KeepsProvidedSessionKey(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{Content: "ok"}),
	}}
	runner, _ := newTestRunner(t, testConfig(), provider)

	result, err := runner.Run(context.Background(), RunParams{Prompt: "hi", SessionKey: "fixed-key"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-key", result.SessionKey)
}

func TestRunner_SavesMemorySnapshot(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = config.MemoryConfig{Enabled: true, MaxFiles: 8}

	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{Content: "remembered"}),
	}}
	runner, _ := newTestRunner(t, cfg, provider)

	store, err := memory.NewStore(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)
	runner.SetMemoryStore(store)

	result, err := runner.Run(context.Background(), RunParams{Prompt: "remember this"})
	require.NoError(t, err)

	snapshot, ok, err := store.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.SessionKey, snapshot.SessionKey)
	require.Len(t, snapshot.Messages, 2)
	assert.Equal(t, "remember this", snapshot.Messages[0].Content)
	assert.Equal(t, "remembered", snapshot.Messages[1].Content)
}

func TestRunner_AbortedContext(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{Content: "never"}),
	}}
	runner, _ := newTestRunner(t, testConfig(), provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := runner.Run(ctx, RunParams{Prompt: "hi"})
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.Empty(t, provider.requests)
}

func TestRunner_InjectsMemoryContext(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = config.MemoryConfig{Enabled: true, MaxFiles: 8}

	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{Content: "hello again"}),
	}}
	runner, _ := newTestRunner(t, cfg, provider)

	store, err := memory.NewStore(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)
	seed := memory.Snapshot{
		SessionKey: "earlier-sess",
		CreatedAt:  time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		Messages:   []memory.Record{{Role: "user", Content: "earlier question"}},
	}
	seed.SetPreference("language", "english")
	_, err = store.Save(seed)
	require.NoError(t, err)
	runner.SetMemoryStore(store)

	_, err = runner.Run(context.Background(), RunParams{Prompt: "hi"})
	require.NoError(t, err)

	require.Len(t, provider.requests, 1)
	systemPrompt := provider.requests[0].SystemPrompt
	assert.Contains(t, systemPrompt, "Remembered from previous sessions:")
	assert.Contains(t, systemPrompt, "User preferences: language=english")
	assert.Contains(t, systemPrompt, "earlier question")
}

func TestRunner_CarriesMemoryForward(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = config.MemoryConfig{Enabled: true, MaxFiles: 8}

	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{Content: "noted"}),
	}}
	runner, _ := newTestRunner(t, cfg, provider)

	store, err := memory.NewStore(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)
	seed := memory.Snapshot{
		CreatedAt: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		Messages:  []memory.Record{{Role: "user", Content: "earlier question"}},
	}
	seed.SetFact("timezone", "UTC+7")
	_, err = store.Save(seed)
	require.NoError(t, err)
	runner.SetMemoryStore(store)

	_, err = runner.Run(context.Background(), RunParams{Prompt: "remember this too"})
	require.NoError(t, err)

	snapshot, ok, err := store.LoadLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "UTC+7", snapshot.Facts["timezone"])
	require.Len(t, snapshot.Messages, 3)
	assert.Equal(t, "earlier question", snapshot.Messages[0].Content)
	assert.Equal(t, "remember this too", snapshot.Messages[1].Content)
	assert.Equal(t, "noted", snapshot.Messages[2].Content)
}

func TestRunner_LogsEstimatedContextSize(t *testing.T) {
	provider := &stubProvider{script: []func() (*LLMResponse, error){
		respondWith(&LLMResponse{Content: "done"}),
	}}

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	runner := NewRunner(testConfig(), provider, toolexec.NewDispatcher(toolexec.NewRegistry()), logger)

	_, err := runner.Run(context.Background(), RunParams{Prompt: "hi"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "context_tokens")
}
