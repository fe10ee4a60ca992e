package memory

import (
	"context"
	"strings"
	"time"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

// RegisterMemoryTools registers snapshot tools with the given registry so
// the planner can persist and recall conversations itself.
func RegisterMemoryTools(registry *toolexec.Registry, store *Store) error {
	tools := []toolexec.ToolDefinition{
		{
			Name:        "memory_save",
			Description: "Persist the current conversation as a memory snapshot.",
			Category:    toolexec.CategoryMemory,
			Parameters: []toolexec.ToolParameter{
				{Name: "messages", Type: "array", Description: "Conversation messages, each {role, content}", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				rawMessages, ok := params["messages"].([]interface{})
				if !ok || len(rawMessages) == 0 {
					return nil, toolexec.Argumentf("messages must be a non-empty array")
				}

				snapshot := Snapshot{CreatedAt: time.Now()}
				if execCtx := toolexec.ExecContextFromContext(ctx); execCtx != nil {
					snapshot.SessionKey = execCtx.SessionKey
				}
				for _, raw := range rawMessages {
					entry, ok := raw.(map[string]interface{})
					if !ok {
						return nil, toolexec.Argumentf("each message must be an object with role and content")
					}
					role, _ := entry["role"].(string)
					content, _ := entry["content"].(string)
					if role == "" {
						return nil, toolexec.Argumentf("message role is required")
					}
					snapshot.Messages = append(snapshot.Messages, Record{
						Role:      role,
						Content:   content,
						Timestamp: time.Now(),
					})
				}

				path, err := store.Save(snapshot)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"path":     path,
					"messages": len(snapshot.Messages),
				}, nil
			},
		},
		{
			Name:        "memory_remember",
			Description: "Remember a user preference or fact across sessions.",
			Category:    toolexec.CategoryMemory,
			Parameters: []toolexec.ToolParameter{
				{Name: "kind", Type: "string", Description: "What to remember: preference or fact", Required: true},
				{Name: "key", Type: "string", Description: "Name of the item, such as language or timezone", Required: true},
				{Name: "value", Type: "string", Description: "The value to remember", Required: true},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				kind, _ := params["kind"].(string)
				key, _ := params["key"].(string)
				if strings.TrimSpace(key) == "" {
					return nil, toolexec.Argumentf("key is required")
				}

				snapshot, _, err := store.LoadLatest()
				if err != nil {
					return nil, err
				}
				snapshot.CreatedAt = time.Now()
				if execCtx := toolexec.ExecContextFromContext(ctx); execCtx != nil && execCtx.SessionKey != "" {
					snapshot.SessionKey = execCtx.SessionKey
				}

				switch kind {
				case "preference":
					snapshot.SetPreference(key, params["value"])
				case "fact":
					snapshot.SetFact(key, params["value"])
				default:
					return nil, toolexec.Argumentf("kind must be preference or fact, got %q", kind)
				}

				path, err := store.Save(snapshot)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"path": path,
					"kind": kind,
					"key":  key,
				}, nil
			},
		},
		{
			Name:        "memory_list",
			Description: "List stored memory snapshots, oldest to newest.",
			Category:    toolexec.CategoryMemory,
			Parameters:  []toolexec.ToolParameter{},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				files, err := store.List()
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"files": files,
					"count": len(files),
				}, nil
			},
		},
		{
			Name:        "memory_load",
			Description: "Load a memory snapshot by recency index (1 = most recent).",
			Category:    toolexec.CategoryMemory,
			Parameters: []toolexec.ToolParameter{
				{Name: "index", Type: "integer", Description: "Recency index, 1-based (default 1)", Required: false, Default: 1},
			},
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				index := 1
				switch raw := params["index"].(type) {
				case float64:
					index = int(raw)
				case int:
					index = raw
				}
				if index < 1 {
					return nil, toolexec.Argumentf("index must be >= 1, got %d", index)
				}

				snapshot, found, err := store.LoadByIndex(index)
				if err != nil {
					return nil, err
				}
				if !found {
					return nil, toolexec.Argumentf("no snapshot at index %d", index)
				}
				return snapshot, nil
			},
		},
	}

	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
