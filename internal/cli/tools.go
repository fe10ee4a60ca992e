package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/metrics"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

var toolsJSON bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the available tools",
	Long: `List every registered tool with its description and parameters,
in registration order. No tool is executed.`,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print the catalog as JSON")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, appLogger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	dispatcher, _, err := buildDispatcher(cfg, metrics.NewMetrics(), appLogger)
	if err != nil {
		return err
	}

	catalog := toolexec.Describe(dispatcher.Registry())

	if toolsJSON {
		data, err := json.MarshalIndent(catalog, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal tool catalog: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	for _, tool := range catalog {
		fmt.Printf("%s [%s]\n", tool.Name, tool.Category)
		fmt.Printf("  %s\n", tool.Description)
		for _, param := range tool.Parameters {
			requirement := "optional"
			if param.Required {
				requirement = "required"
			}
			fmt.Printf("  - %s (%s, %s): %s\n", param.Name, param.Type, requirement, param.Description)
		}
		fmt.Println()
	}
	fmt.Printf("%d tools registered\n", len(catalog))

	return nil
}
