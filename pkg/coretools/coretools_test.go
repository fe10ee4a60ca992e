package coretools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

func newTestDispatcher(t *testing.T, opts Options) *toolexec.Dispatcher {
	t.Helper()

	registry := toolexec.NewRegistry()
	require.NoError(t, RegisterCoreTools(registry, opts))
	return toolexec.NewDispatcher(registry)
}

func TestRegisterCoreTools(t *testing.T) {
	registry := toolexec.NewRegistry()
	require.NoError(t, RegisterCoreTools(registry, Options{WorkspaceRoot: t.TempDir()}))

	assert.Equal(t, []string{
		"read_file",
		"write_file",
		"list_dir",
		"execute_command",
		"calculate",
		"system_info",
		"http_request",
		"web_search",
	}, registry.Names())
}

func TestRegisterCoreTools_NilRegistry(t *testing.T) {
	err := RegisterCoreTools(nil, Options{})
	assert.Error(t, err)
}
