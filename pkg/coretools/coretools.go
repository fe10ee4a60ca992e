// Package coretools registers the baseline MiniAgent tools: filesystem
// access, shell execution, calculator, system introspection and network
// calls. Each tool is an opaque leaf behind the registry; the dispatch core
// never inspects their semantics.
package coretools

import (
	"errors"
	"fmt"
	"time"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

// Options configures core tool registration.
type Options struct {
	WorkspaceRoot string
	ExecTimeout   time.Duration
	HTTPTimeout   time.Duration
}

// RegisterCoreTools registers the baseline tools into the given registry.
// Registration is an explicit initialization step; nothing here runs at
// import time.
func RegisterCoreTools(registry *toolexec.Registry, opts Options) error {
	if registry == nil {
		return errors.New("registry is required")
	}
	if opts.ExecTimeout <= 0 {
		opts.ExecTimeout = 30 * time.Second
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}

	tools := []toolexec.ToolDefinition{
		readFileTool(opts),
		writeFileTool(opts),
		listDirTool(opts),
		executeCommandTool(opts),
		calculateTool(),
		systemInfoTool(),
		httpRequestTool(opts),
		webSearchTool(opts),
	}

	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", tool.Name, err)
		}
	}
	return nil
}
