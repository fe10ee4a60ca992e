package coretools

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

func executeCommandTool(opts Options) toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "execute_command",
		Description: "Execute a shell command in the workspace and capture its output.",
		Category:    toolexec.CategoryShell,
		Parameters: []toolexec.ToolParameter{
			{Name: "command", Type: "string", Description: "Command to execute", Required: true},
			{Name: "args", Type: "array", Description: "Command arguments", Required: false},
			{Name: "cwd", Type: "string", Description: "Working directory (relative to workspace)", Required: false},
			{Name: "timeout", Type: "number", Description: "Timeout in seconds", Required: false},
			{Name: "env", Type: "object", Description: "Additional environment variables", Required: false},
			{Name: "stdin", Type: "string", Description: "Standard input", Required: false},
		},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			command, _ := params["command"].(string)
			command = strings.TrimSpace(command)
			if command == "" {
				return nil, toolexec.Argumentf("command is required")
			}

			workspaceRoot, err := resolveWorkspaceRoot(ctx, opts)
			if err != nil {
				return nil, err
			}

			args := toStringSlice(params["args"])
			timeout := parseDurationSeconds(params["timeout"], opts.ExecTimeout)
			env := toStringMap(params["env"])
			cwd := resolveWorkspaceDir(workspaceRoot, params["cwd"])

			cmdCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(cmdCtx, command, args...)
			cmd.Dir = cwd
			if len(env) > 0 {
				cmd.Env = os.Environ()
				for key, value := range env {
					cmd.Env = append(cmd.Env, key+"="+value)
				}
			}
			if stdin, ok := params["stdin"].(string); ok && stdin != "" {
				cmd.Stdin = strings.NewReader(stdin)
			}

			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			start := time.Now()
			runErr := cmd.Run()
			duration := time.Since(start)

			exitCode := 0
			if runErr != nil {
				if exitErr, ok := runErr.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else if cmdCtx.Err() != nil {
					return nil, cmdCtx.Err()
				} else {
					return nil, runErr
				}
			}

			return map[string]interface{}{
				"stdout":    stdout.String(),
				"stderr":    stderr.String(),
				"exit_code": exitCode,
				"duration":  duration.Milliseconds(),
			}, nil
		},
	}
}

func resolveWorkspaceDir(workspaceRoot string, value interface{}) string {
	raw, _ := value.(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return workspaceRoot
	}
	if resolved, err := resolvePathInWorkspace(workspaceRoot, raw); err == nil {
		return resolved
	}
	return workspaceRoot
}

func toStringSlice(value interface{}) []string {
	raw, ok := value.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toStringMap(value interface{}) map[string]string {
	raw, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch typed := v.(type) {
		case string:
			out[k] = typed
		default:
			b, _ := json.Marshal(typed)
			out[k] = string(b)
		}
	}
	return out
}

func parseDurationSeconds(value interface{}, fallback time.Duration) time.Duration {
	switch v := value.(type) {
	case float64:
		if v > 0 {
			return time.Duration(v * float64(time.Second))
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case int64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return fallback
}
