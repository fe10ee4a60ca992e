// Package toolexec is the registry-and-dispatch core for MiniAgent tools.
//
// Invariants:
// - Tool names are unique; re-registering a name overwrites with a warning.
// - Listing follows registration order.
// - Parameters are schema-validated before the handler runs.
// - Execute never propagates a raw fault; every outcome is a ToolResult.
//
// Usage:
//
//	reg := toolexec.NewRegistry()
//	_ = reg.Register(toolexec.ToolDefinition{
//		Name: "echo",
//		Description: "Echo input",
//		Parameters: []toolexec.ToolParameter{{Name: "text", Type: "string", Description: "text", Required: true}},
//		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) { return params["text"], nil },
//	})
//	result := toolexec.NewDispatcher(reg).Execute(ctx, "echo", map[string]interface{}{"text": "hi"})
package toolexec
