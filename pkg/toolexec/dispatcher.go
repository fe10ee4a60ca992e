package toolexec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/metrics"
	"github.com/BrenchCC/MiniAgent-FromScratch/internal/tracing"
)

const (
	defaultExecuteTimeout = 30 * time.Second

	// maxOutputSize caps the serialized size of a tool's output before it is
	// truncated for the planner.
	maxOutputSize = 10 * 1024
)

// Dispatcher resolves tools by name, invokes them and normalizes every
// outcome into a ToolResult. It is the sole boundary converting raw faults
// into the error taxonomy; nothing above it observes an unstructured fault.
//
// Registration is expected to complete before concurrent execution begins;
// after that Execute is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		timeout:  defaultExecuteTimeout,
	}
}

// SetMetrics attaches Prometheus metrics. Optional.
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// SetDefaultTimeout overrides the per-call timeout used when the execution
// context does not carry one.
func (d *Dispatcher) SetDefaultTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.timeout = timeout
	}
}

// Registry returns the registry this dispatcher executes against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Execute runs a tool by name with untyped keyword arguments and returns a
// normalized result. Failures are classified as unknown_tool,
// invalid_arguments, missing_configuration or execution_error; handler
// panics and timeouts surface as execution_error.
func (d *Dispatcher) Execute(ctx context.Context, toolName string, params map[string]interface{}) ToolResult {
	startTime := time.Now()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := tracing.StartSpan(
		ctx,
		"tool.execute",
		attribute.String("tool.name", toolName),
	)
	defer span.End()

	invocationID := uuid.New().String()

	execCtx := ExecContextFromContext(ctx)
	if execCtx == nil {
		execCtx = &ExecutionContext{}
		ctx = ContextWithExecContext(ctx, execCtx)
	}
	if execCtx.InvocationID == "" {
		execCtx.InvocationID = invocationID
	}

	tool, ok := d.registry.Lookup(toolName)
	if !ok {
		log.Error().Str("tool", toolName).Str("invocation_id", invocationID).Msg("Tool not found")
		span.SetStatus(codes.Error, "tool not found")
		return d.failure(toolName, invocationID, startTime, KindUnknownTool,
			fmt.Sprintf("tool '%s' not registered", toolName))
	}

	if err := d.validateParams(toolName, params); err != nil {
		log.Error().Str("tool", toolName).Str("invocation_id", invocationID).Err(err).Msg("Parameter validation failed")
		span.SetStatus(codes.Error, "invalid arguments")
		return d.failure(toolName, invocationID, startTime, KindInvalidArguments, err.Error())
	}

	params = withDefaults(tool, params)

	timeout := d.timeout
	if execCtx.Timeout > 0 {
		timeout = execCtx.Timeout
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug().Str("tool", toolName).Str("invocation_id", invocationID).Msg("Executing tool")

	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("tool panicked: %v", r)
			}
		}()
		result, err := tool.Handler(timeoutCtx, params)
		if err != nil {
			errChan <- err
		} else {
			resultChan <- result
		}
	}()

	select {
	case result := <-resultChan:
		duration := time.Since(startTime)
		output, truncated := truncateOutput(result)

		d.observe(toolName, "success", duration)
		log.Debug().
			Str("tool", toolName).
			Str("invocation_id", invocationID).
			Dur("duration", duration).
			Bool("truncated", truncated).
			Msg("Tool execution completed")

		return ToolResult{
			Success:   true,
			Output:    output,
			Truncated: truncated,
			Metadata:  d.metadata(invocationID, duration),
		}

	case err := <-errChan:
		duration := time.Since(startTime)
		kind := classifyError(err)

		d.observe(toolName, string(kind), duration)
		log.Error().
			Str("tool", toolName).
			Str("invocation_id", invocationID).
			Str("error_kind", string(kind)).
			Dur("duration", duration).
			Err(err).
			Msg("Tool execution failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))

		return ToolResult{
			Success:   false,
			ErrorKind: kind,
			Error:     err.Error(),
			Metadata:  d.metadata(invocationID, duration),
		}

	case <-timeoutCtx.Done():
		duration := time.Since(startTime)

		message := fmt.Sprintf("tool execution timeout after %v", timeout)
		if errors.Is(timeoutCtx.Err(), context.Canceled) {
			message = "tool execution cancelled by caller"
		}

		d.observe(toolName, string(KindExecutionError), duration)
		log.Error().
			Str("tool", toolName).
			Str("invocation_id", invocationID).
			Dur("duration", duration).
			Msg(message)
		span.SetStatus(codes.Error, message)

		return ToolResult{
			Success:   false,
			ErrorKind: KindExecutionError,
			Error:     message,
			Metadata:  d.metadata(invocationID, duration),
		}
	}
}

func (d *Dispatcher) validateParams(toolName string, params map[string]interface{}) error {
	schema := d.registry.schema(toolName)
	if schema == nil {
		return nil
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("invalid arguments: %v", err)
	}
	if !result.Valid() {
		details := []string{}
		for _, verr := range result.Errors() {
			details = append(details, verr.String())
		}
		return fmt.Errorf("invalid arguments: %v", details)
	}
	return nil
}

// withDefaults copies params and fills in declared defaults for absent
// optional parameters. The caller's map is never mutated.
func withDefaults(tool *ToolDefinition, params map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(params)+len(tool.Parameters))
	for k, v := range params {
		merged[k] = v
	}
	for _, param := range tool.Parameters {
		if param.Default == nil {
			continue
		}
		if _, present := merged[param.Name]; !present {
			merged[param.Name] = param.Default
		}
	}
	return merged
}

func (d *Dispatcher) failure(toolName, invocationID string, startTime time.Time, kind ErrorKind, message string) ToolResult {
	duration := time.Since(startTime)
	d.observe(toolName, string(kind), duration)
	return ToolResult{
		Success:   false,
		ErrorKind: kind,
		Error:     message,
		Metadata:  d.metadata(invocationID, duration),
	}
}

func (d *Dispatcher) metadata(invocationID string, duration time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"invocation_id": invocationID,
		"duration_ms":   duration.Milliseconds(),
	}
}

func (d *Dispatcher) observe(toolName, status string, duration time.Duration) {
	if d.metrics == nil {
		return
	}
	d.metrics.ToolExecutionsTotal.WithLabelValues(toolName, status).Inc()
	d.metrics.ToolExecutionDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

func classifyError(err error) ErrorKind {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return KindInvalidArguments
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return KindMissingConfiguration
	}
	return KindExecutionError
}

// truncateOutput truncates output if its rendered form exceeds the size limit.
func truncateOutput(output interface{}) (interface{}, bool) {
	str := fmt.Sprintf("%v", output)
	if len(str) <= maxOutputSize {
		return output, false
	}

	truncated := str[:maxOutputSize] + "\n... [output truncated]"
	log.Warn().
		Int("original", len(str)).
		Int("truncated", maxOutputSize).
		Msg("Output truncated")

	return truncated, true
}
