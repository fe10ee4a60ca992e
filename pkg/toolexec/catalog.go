package toolexec

// ToolDescription is the externally consumable metadata for one tool.
type ToolDescription struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Parameters  []ToolParameter `json:"parameters"`
}

// Describe serializes the registry into a catalog for an external planner.
// Output follows registration order, is stable for a given registry state
// and never executes a tool.
func Describe(registry *Registry) []ToolDescription {
	defs := registry.List()
	out := make([]ToolDescription, 0, len(defs))
	for _, def := range defs {
		params := make([]ToolParameter, len(def.Parameters))
		copy(params, def.Parameters)
		out = append(out, ToolDescription{
			Name:        def.Name,
			Description: def.Description,
			Category:    def.Category,
			Parameters:  params,
		})
	}
	return out
}

// FunctionSpecs renders the catalog as LLM function declarations:
// {name, description, input_schema} per tool, in registration order.
func FunctionSpecs(registry *Registry) []map[string]interface{} {
	defs := registry.List()
	out := make([]map[string]interface{}, 0, len(defs))
	for _, def := range defs {
		out = append(out, map[string]interface{}{
			"name":         def.Name,
			"description":  def.Description,
			"input_schema": inputSchema(def),
		})
	}
	return out
}

func inputSchema(def *ToolDefinition) map[string]interface{} {
	properties := make(map[string]interface{}, len(def.Parameters))
	required := []string{}

	for _, param := range def.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
