package agent

import (
	"context"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/config"
	"github.com/BrenchCC/MiniAgent-FromScratch/internal/metrics"
	"github.com/BrenchCC/MiniAgent-FromScratch/internal/tracing"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/memory"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

// RunParams contains the inputs for a single agent run.
type RunParams struct {
	Prompt     string
	SessionKey string
	WorkingDir string
}

// Runner drives the conversation loop: it calls the LLM, executes the tool
// calls it requests through the dispatcher, feeds the results back, and
// repeats until the model answers in plain text or the iteration limit hits.
type Runner struct {
	cfg        *config.Config
	provider   LLMProvider
	dispatcher *toolexec.Dispatcher
	reflector  *Reflector
	store      *memory.Store
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewRunner assembles a runner. The memory store and metrics are optional.
func NewRunner(cfg *config.Config, provider LLMProvider, dispatcher *toolexec.Dispatcher, logger zerolog.Logger) *Runner {
	r := &Runner{
		cfg:        cfg,
		provider:   provider,
		dispatcher: dispatcher,
		logger:     logger,
	}
	if cfg.Agent.UseReflector {
		r.reflector = NewReflector(provider, cfg.LLM, logger)
	}
	return r
}

// SetMemoryStore enables conversation snapshots after each run.
func (r *Runner) SetMemoryStore(store *memory.Store) {
	r.store = store
}

// SetMetrics enables run instrumentation.
func (r *Runner) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Run executes one prompt to completion.
func (r *Runner) Run(ctx context.Context, params RunParams) (RunResult, error) {
	if params.Prompt == "" {
		return RunResult{}, fmt.Errorf("prompt cannot be empty")
	}

	sessionKey := params.SessionKey
	if sessionKey == "" {
		id, err := gonanoid.New()
		if err != nil {
			return RunResult{}, fmt.Errorf("failed to generate session key: %w", err)
		}
		sessionKey = id
	}

	ctx = tracing.WithSessionKey(tracing.NewRequestContext(ctx), sessionKey)
	ctx, span := tracing.StartSpan(
		ctx,
		"agent.run",
		attribute.String("session_key", sessionKey),
		attribute.String("provider", r.provider.Provider()),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, r.logger).With().Str("session_key", sessionKey).Logger()
	logger.Info().Str("model", r.cfg.LLM.Model).Msg("Agent run started")

	start := time.Now()
	result, err := r.executeWithTools(ctx, sessionKey, params, logger)
	result.SessionKey = sessionKey

	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.AgentRunsTotal.WithLabelValues(status).Inc()
		r.metrics.AgentRunDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Msg("Agent run failed")
		return result, err
	}

	if r.reflector != nil && !result.Aborted {
		improved, reflected := r.reflector.Reflect(ctx, params.Prompt, result.Response)
		if reflected {
			result.Response = improved
			result.Reflected = true
		}
		if r.metrics != nil {
			outcome := "unchanged"
			if reflected {
				outcome = "improved"
			}
			r.metrics.ReflectionsTotal.WithLabelValues(outcome).Inc()
		}
	}

	if r.store != nil && r.cfg.Memory.Enabled && !result.Aborted {
		r.saveSnapshot(sessionKey, params.Prompt, result.Response, logger)
	}

	logger.Info().
		Int("iterations", result.Iterations).
		Int("tool_calls", len(result.ToolCalls)).
		Int("input_tokens", result.Usage.InputTokens).
		Int("output_tokens", result.Usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("Agent run completed")

	return result, nil
}

// executeWithTools handles the tool execution loop.
func (r *Runner) executeWithTools(ctx context.Context, sessionKey string, params RunParams, logger zerolog.Logger) (RunResult, error) {
	systemPrompt := r.cfg.Agent.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = config.DefaultSystemPrompt
	}
	if memCtx := r.memoryContext(logger); memCtx != "" {
		systemPrompt += "\n\nRemembered from previous sessions:\n" + memCtx
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: params.Prompt},
	}
	tools := toolexec.FunctionSpecs(r.dispatcher.Registry())

	maxIterations := r.cfg.Agent.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 8
	}

	allToolCalls := []ToolCall{}
	usage := TokenUsage{}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return RunResult{Aborted: true, ToolCalls: allToolCalls, Usage: usage, Iterations: iteration - 1}, nil
		default:
		}

		logger.Debug().
			Int("iteration", iteration).
			Int("context_tokens", EstimateTokens(messages)).
			Msg("Calling LLM")

		response, err := r.callWithRetry(ctx, messages, tools, systemPrompt, logger)
		if err != nil {
			return RunResult{ToolCalls: allToolCalls, Usage: usage, Iterations: iteration}, err
		}
		usage.Add(response.Usage)

		if len(response.ToolCalls) == 0 {
			return RunResult{
				Response:   response.Content,
				ToolCalls:  allToolCalls,
				Usage:      usage,
				Iterations: iteration,
			}, nil
		}

		messages = append(messages, Message{
			Role:      "assistant",
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		for _, toolCall := range response.ToolCalls {
			logger.Debug().Str("tool", toolCall.Name).Str("tool_call_id", toolCall.ID).Msg("Executing tool call")

			execCtx := toolexec.ContextWithExecContext(ctx, &toolexec.ExecutionContext{
				SessionKey: sessionKey,
				WorkingDir: params.WorkingDir,
			})
			result := r.dispatcher.Execute(execCtx, toolCall.Name, toolCall.Parameters)

			if r.metrics != nil {
				r.metrics.AgentToolCallsTotal.Inc()
			}

			content := formatToolResult(result)
			messages = append(messages, Message{
				Role:       "tool",
				Content:    content,
				ToolCallID: toolCall.ID,
			})
		}

		allToolCalls = append(allToolCalls, response.ToolCalls...)
	}

	return RunResult{ToolCalls: allToolCalls, Usage: usage, Iterations: maxIterations},
		fmt.Errorf("maximum tool iterations (%d) exceeded", maxIterations)
}

// callWithRetry calls the LLM with exponential backoff on transient failures.
func (r *Runner) callWithRetry(ctx context.Context, messages []Message, tools []map[string]interface{}, systemPrompt string, logger zerolog.Logger) (*LLMResponse, error) {
	maxRetries := r.cfg.Agent.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	request := LLMRequest{
		Model:        r.cfg.LLM.Model,
		Messages:     messages,
		Tools:        tools,
		Temperature:  r.cfg.LLM.Temperature,
		TopP:         r.cfg.LLM.TopP,
		MaxTokens:    r.cfg.LLM.MaxTokens,
		SystemPrompt: systemPrompt,
	}

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		response, err := r.provider.Call(ctx, request)
		if err == nil {
			if r.metrics != nil {
				r.metrics.LLMRequestsTotal.WithLabelValues(r.provider.Provider(), "success").Inc()
			}
			return response, nil
		}

		lastErr = err
		if r.metrics != nil {
			r.metrics.LLMRequestsTotal.WithLabelValues(r.provider.Provider(), "error").Inc()
		}

		if !IsRetryableError(err) {
			return nil, err
		}

		if attempt == maxRetries-1 {
			break
		}

		// Exponential backoff: 1s, 2s, 4s
		delay := time.Duration(1<<attempt) * time.Second
		if r.metrics != nil {
			r.metrics.LLMRetriesTotal.Inc()
		}
		logger.Warn().
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("Retrying LLM call after transient error")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

// memoryContext renders the most recent snapshot for prompt injection.
// Returns "" when memory is disabled, absent, or unreadable.
func (r *Runner) memoryContext(logger zerolog.Logger) string {
	if r.store == nil || !r.cfg.Memory.Enabled {
		return ""
	}
	snapshot, ok, err := r.store.LoadLatest()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load memory snapshot")
		return ""
	}
	if !ok {
		return ""
	}
	return snapshot.Context()
}

// saveSnapshot persists the exchange to the memory store, carrying forward
// the remembered preferences, facts, and conversation from the previous
// snapshot. Failures are logged and do not fail the run.
func (r *Runner) saveSnapshot(sessionKey, prompt, response string, logger zerolog.Logger) {
	now := time.Now()
	snapshot := memory.Snapshot{SessionKey: sessionKey, CreatedAt: now}

	if prev, ok, err := r.store.LoadLatest(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load previous memory snapshot")
	} else if ok {
		snapshot.Preferences = prev.Preferences
		snapshot.Facts = prev.Facts
		snapshot.Messages = prev.Messages
	}

	snapshot.Messages = append(snapshot.Messages,
		memory.Record{Role: "user", Content: prompt, Timestamp: now},
		memory.Record{Role: "assistant", Content: response, Timestamp: now},
	)

	_, err := r.store.Save(snapshot)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to save conversation snapshot")
		return
	}
	if r.metrics != nil {
		r.metrics.MemorySnapshotsTotal.Inc()
	}
}

func formatToolResult(result toolexec.ToolResult) string {
	if !result.Success {
		return fmt.Sprintf("error (%s): %s", result.ErrorKind, result.Error)
	}
	switch v := result.Output.(type) {
	case string:
		return v
	case nil:
		return "(no output)"
	default:
		return fmt.Sprintf("%v", v)
	}
}
