package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/agent"
)

// scriptedProvider returns one canned response for every call.
type scriptedProvider struct {
	response *agent.LLMResponse
	err      error
	request  agent.LLMRequest
}

func (p *scriptedProvider) Provider() string { return "scripted" }

func (p *scriptedProvider) Call(ctx context.Context, request agent.LLMRequest) (*agent.LLMResponse, error) {
	p.request = request
	return p.response, p.err
}

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestValidateConnection(t *testing.T) {
	provider := &scriptedProvider{response: &agent.LLMResponse{Content: "I am a model. Test Successful"}}
	require.NoError(t, validateConnection(newCheckCommand(), provider, "test-model"))

	provider = &scriptedProvider{response: &agent.LLMResponse{Content: "something else"}}
	assert.Error(t, validateConnection(newCheckCommand(), provider, "test-model"))
}

func TestValidateCapabilities(t *testing.T) {
	provider := &scriptedProvider{response: &agent.LLMResponse{Content: "What are the main applications of AI?"}}
	require.NoError(t, validateCapabilities(newCheckCommand(), provider, "test-model"))
	assert.Contains(t, provider.request.Messages[0].Content, "generate a high-quality question")

	provider = &scriptedProvider{response: &agent.LLMResponse{Content: "   "}}
	assert.Error(t, validateCapabilities(newCheckCommand(), provider, "test-model"))
}

func TestValidateToolUse(t *testing.T) {
	provider := &scriptedProvider{response: &agent.LLMResponse{
		ToolCalls: []agent.ToolCall{{ID: "call_1", Name: "calculator", Parameters: map[string]interface{}{"expression": "1234*5678"}}},
	}}
	require.NoError(t, validateToolUse(newCheckCommand(), provider, "test-model"))

	provider = &scriptedProvider{response: &agent.LLMResponse{Content: "7006652"}}
	assert.Error(t, validateToolUse(newCheckCommand(), provider, "test-model"))
}
