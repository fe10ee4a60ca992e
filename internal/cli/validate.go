package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/logger"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/agent"
)

var validateCmd = &cobra.Command{
	Use:   "validate [connection|capabilities|tools]",
	Short: "Validate the LLM connection",
	Long: `Validate that the configured LLM endpoint is reachable and usable.

The connection check sends a fixed prompt and verifies the reply. The
capabilities check asks the model to generate a comprehension question from
a reference text. The tools check offers the model a calculator function
and verifies it requests a tool call.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"connection", "capabilities", "tools"},
	RunE:      runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	checkType := "connection"
	if len(args) > 0 {
		checkType = args[0]
	}

	cfg, appLogger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	appLogger.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("base_url", cfg.LLM.BaseURL).
		Str("api_key", logger.MaskSecret(cfg.LLM.APIKey)).
		Msg("Validating LLM connection")

	provider, err := agent.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	switch checkType {
	case "connection":
		return validateConnection(cmd, provider, cfg.LLM.Model)
	case "capabilities":
		return validateCapabilities(cmd, provider, cfg.LLM.Model)
	case "tools":
		return validateToolUse(cmd, provider, cfg.LLM.Model)
	default:
		return fmt.Errorf("unknown check type: %s", checkType)
	}
}

func validateConnection(cmd *cobra.Command, provider agent.LLMProvider, model string) error {
	response, err := provider.Call(cmd.Context(), agent.LLMRequest{
		Model: model,
		Messages: []agent.Message{
			{Role: "user", Content: "First tell me who you are? Then Please reply with the two words 'Test Successful' and nothing else"},
		},
		MaxTokens: 64,
	})
	if err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}

	if !strings.Contains(response.Content, "Test Successful") {
		return fmt.Errorf("connection check failed: unexpected reply %q", response.Content)
	}

	fmt.Println("connection check passed")
	fmt.Printf("model: %s\n", model)
	fmt.Printf("reply: %s\n", response.Content)
	return nil
}

func validateCapabilities(cmd *cobra.Command, provider agent.LLMProvider, model string) error {
	referenceText := "Artificial intelligence is a branch of computer science dedicated to creating machines capable of simulating human intelligence. It involves developing systems that can perceive, reason, learn, and make decisions. The applications of artificial intelligence are wide-ranging, including natural language processing, computer vision, robotics, and expert systems."

	response, err := provider.Call(cmd.Context(), agent.LLMRequest{
		Model: model,
		Messages: []agent.Message{
			{Role: "user", Content: fmt.Sprintf("Based on the following text, generate a high-quality question. The question should have clear direction and test understanding of the core content:\n%s", referenceText)},
		},
		MaxTokens: 1000,
	})
	if err != nil {
		return fmt.Errorf("capabilities check failed: %w", err)
	}

	if strings.TrimSpace(response.Content) == "" {
		return fmt.Errorf("capabilities check failed: model returned an empty reply")
	}

	fmt.Println("capabilities check passed")
	fmt.Printf("generated question: %s\n", response.Content)
	return nil
}

func validateToolUse(cmd *cobra.Command, provider agent.LLMProvider, model string) error {
	calculatorTool := map[string]interface{}{
		"name":        "calculator",
		"description": "Perform simple mathematical calculations",
		"input_schema": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "The mathematical expression to calculate, such as '2+2' or '5*6'",
				},
			},
			"required": []string{"expression"},
		},
	}

	response, err := provider.Call(cmd.Context(), agent.LLMRequest{
		Model: model,
		Messages: []agent.Message{
			{Role: "user", Content: "Calculate 1234 multiplied by 5678."},
		},
		Tools:     []map[string]interface{}{calculatorTool},
		MaxTokens: 512,
	})
	if err != nil {
		return fmt.Errorf("tool use check failed: %w", err)
	}

	for _, toolCall := range response.ToolCalls {
		if toolCall.Name == "calculator" {
			fmt.Println("tool use check passed")
			fmt.Printf("expression: %v\n", toolCall.Parameters["expression"])
			return nil
		}
	}

	return fmt.Errorf("tool use check failed: model did not call the calculator tool")
}
