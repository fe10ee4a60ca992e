package toolexec

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Registry is the process-scoped catalog of tools. It is an explicitly
// constructed object, not ambient state, so multiple registries can coexist
// in tests. Registration order is preserved for deterministic listing.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	tools   map[string]*ToolDefinition
	schemas map[string]*gojsonschema.Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]*ToolDefinition),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register validates and adds a tool definition. Registering a name that
// already exists overwrites the previous definition and keeps its position
// in the listing; the overwrite is logged as a warning, never silent.
func (r *Registry) Register(def ToolDefinition) error {
	if err := validateDefinition(def); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schema, err := compileSchema(def)
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		log.Warn().Str("tool", def.Name).Msg("Tool re-registered, previous definition overwritten")
	} else {
		r.order = append(r.order, def.Name)
	}

	r.tools[def.Name] = &def
	r.schemas[def.Name] = schema

	log.Info().Str("tool", def.Name).Str("category", def.Category).Msg("Tool registered")

	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tools[name]
	return def, ok
}

// List returns all definitions in registration order.
func (r *Registry) List() []*ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns all registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

func (r *Registry) schema(name string) *gojsonschema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.schemas[name]
}

func validateDefinition(def ToolDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if def.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	for _, param := range def.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %q for %s", param.Type, param.Name)
		}
		if param.Description == "" {
			return fmt.Errorf("parameter description cannot be empty for %s", param.Name)
		}
	}

	return nil
}

// compileSchema builds a JSON Schema from the parameter spec. Unknown keys
// are tolerated (additionalProperties stays open): the reference tools are
// permissive and pass extras through to the handler.
func compileSchema(def ToolDefinition) (*gojsonschema.Schema, error) {
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

	schemaMap := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}
