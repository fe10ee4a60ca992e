package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRootCmd(t *testing.T) {
	cmd := GetRootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "miniagent", cmd.Use)
	assert.Equal(t, version, cmd.Version)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, "0.1.0", GetVersion())
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := GetRootCmd()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"run", "tools", "validate", "memory"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	cmd := GetRootCmd()

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
}
