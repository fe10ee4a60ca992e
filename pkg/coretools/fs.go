package coretools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

const defaultReadLimit = 200000

func readFileTool(opts Options) toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "read_file",
		Description: "Read a text file from the workspace.",
		Category:    toolexec.CategoryRead,
		Parameters: []toolexec.ToolParameter{
			{Name: "path", Type: "string", Description: "Relative file path", Required: true},
			{Name: "max_bytes", Type: "number", Description: "Maximum bytes to read (default 200000)", Required: false, Default: defaultReadLimit},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			workspaceRoot, err := resolveWorkspaceRoot(ctx, opts)
			if err != nil {
				return nil, err
			}
			pathValue, _ := params["path"].(string)
			target, err := resolvePathInWorkspace(workspaceRoot, pathValue)
			if err != nil {
				return nil, err
			}

			maxBytes := int64(defaultReadLimit)
			if raw, ok := params["max_bytes"].(float64); ok && raw > 0 {
				maxBytes = int64(raw)
			} else if raw, ok := params["max_bytes"].(int); ok && raw > 0 {
				maxBytes = int64(raw)
			}

			data, truncated, err := readFileWithLimit(target, maxBytes)
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"path":      pathValue,
				"content":   string(data),
				"truncated": truncated,
				"bytes":     len(data),
			}, nil
		},
	}
}

func writeFileTool(opts Options) toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "write_file",
		Description: "Write content to a file in the workspace.",
		Category:    toolexec.CategoryWrite,
		Parameters: []toolexec.ToolParameter{
			{Name: "path", Type: "string", Description: "Relative file path", Required: true},
			{Name: "content", Type: "string", Description: "File content", Required: true},
			{Name: "append", Type: "boolean", Description: "Append to file (default false)", Required: false},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			workspaceRoot, err := resolveWorkspaceRoot(ctx, opts)
			if err != nil {
				return nil, err
			}
			pathValue, _ := params["path"].(string)
			target, err := resolvePathInWorkspace(workspaceRoot, pathValue)
			if err != nil {
				return nil, err
			}
			content, _ := params["content"].(string)
			appendMode, _ := params["append"].(bool)

			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return nil, err
			}

			flag := os.O_CREATE | os.O_WRONLY
			if appendMode {
				flag |= os.O_APPEND
			} else {
				flag |= os.O_TRUNC
			}
			file, err := os.OpenFile(target, flag, 0644)
			if err != nil {
				return nil, err
			}
			if _, err := file.WriteString(content); err != nil {
				file.Close()
				return nil, err
			}
			if err := file.Close(); err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"path":   pathValue,
				"bytes":  len(content),
				"append": appendMode,
			}, nil
		},
	}
}

func listDirTool(opts Options) toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "list_dir",
		Description: "List entries of a workspace directory.",
		Category:    toolexec.CategoryRead,
		Parameters: []toolexec.ToolParameter{
			{Name: "path", Type: "string", Description: "Relative directory path (default: workspace root)", Required: false, Default: "."},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			workspaceRoot, err := resolveWorkspaceRoot(ctx, opts)
			if err != nil {
				return nil, err
			}
			pathValue, _ := params["path"].(string)
			if strings.TrimSpace(pathValue) == "" {
				pathValue = "."
			}
			target, err := resolvePathInWorkspace(workspaceRoot, pathValue)
			if err != nil {
				return nil, err
			}

			entries, err := os.ReadDir(target)
			if err != nil {
				return nil, err
			}

			listing := make([]map[string]interface{}, 0, len(entries))
			for _, entry := range entries {
				item := map[string]interface{}{
					"name": entry.Name(),
					"dir":  entry.IsDir(),
				}
				if info, err := entry.Info(); err == nil && !entry.IsDir() {
					item["size"] = info.Size()
				}
				listing = append(listing, item)
			}
			sort.Slice(listing, func(i, j int) bool {
				return listing[i]["name"].(string) < listing[j]["name"].(string)
			})

			return map[string]interface{}{
				"path":    pathValue,
				"entries": listing,
				"count":   len(listing),
			}, nil
		},
	}
}

func readFileWithLimit(path string, limit int64) ([]byte, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	var buf bytes.Buffer
	truncated := false
	if limit <= 0 {
		limit = defaultReadLimit
	}
	if _, err := io.CopyN(&buf, file, limit); err != nil && !errors.Is(err, io.EOF) {
		return nil, false, err
	}
	extra := make([]byte, 1)
	if _, err := file.Read(extra); err == nil {
		truncated = true
	}
	return buf.Bytes(), truncated, nil
}

func resolveWorkspaceRoot(ctx context.Context, opts Options) (string, error) {
	if execCtx := toolexec.ExecContextFromContext(ctx); execCtx != nil && strings.TrimSpace(execCtx.WorkingDir) != "" {
		return filepath.Clean(execCtx.WorkingDir), nil
	}
	if strings.TrimSpace(opts.WorkspaceRoot) != "" {
		return filepath.Clean(opts.WorkspaceRoot), nil
	}
	return "", toolexec.Configf("workspace root is not configured")
}

func resolvePathInWorkspace(workspaceRoot string, pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", toolexec.Argumentf("path is required")
	}
	if strings.Contains(pathValue, "://") {
		return "", toolexec.Argumentf("path must be a local file")
	}
	candidate := pathValue
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(workspaceRoot, candidate)
	}
	candidate = filepath.Clean(candidate)

	rel, err := filepath.Rel(workspaceRoot, candidate)
	if err != nil {
		return "", err
	}
	if rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..") {
		return candidate, nil
	}
	return "", toolexec.Argumentf("path %q is outside workspace root", pathValue)
}
