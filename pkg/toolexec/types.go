package toolexec

import "context"

// ErrorKind classifies a failed tool invocation for the planner.
type ErrorKind string

const (
	// KindUnknownTool means the requested name is not registered.
	KindUnknownTool ErrorKind = "unknown_tool"
	// KindInvalidArguments means a required parameter is missing or malformed.
	KindInvalidArguments ErrorKind = "invalid_arguments"
	// KindExecutionError means the tool's own logic failed.
	KindExecutionError ErrorKind = "execution_error"
	// KindMissingConfiguration means a tool-local prerequisite is absent,
	// e.g. an API key environment variable.
	KindMissingConfiguration ErrorKind = "missing_configuration"
)

// Tool categories, used by catalogs and host policies.
const (
	CategoryRead    = "read"
	CategoryWrite   = "write"
	CategoryShell   = "shell"
	CategoryNetwork = "network"
	CategorySystem  = "system"
	CategoryMemory  = "memory"
	CategoryCompute = "compute"
)

// ToolParameter defines a parameter for a tool
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// ToolHandler is the function signature for tool execution
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// ToolDefinition binds a name to a handler, a description and a parameter spec.
// The registry keeps its own copy, so a definition is immutable once registered.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Parameters  []ToolParameter `json:"parameters"`
	Handler     ToolHandler     `json:"-"`
}

// ToolResult is the uniform envelope for every tool invocation. It is plain
// structured data so it can cross a process boundary as JSON.
type ToolResult struct {
	Success   bool                   `json:"success"`
	Output    interface{}            `json:"result,omitempty"`
	ErrorKind ErrorKind              `json:"error_kind,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Truncated bool                   `json:"truncated,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
