package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect conversation snapshots",
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, oldest first",
	RunE:  runMemoryList,
}

var memoryShowCmd = &cobra.Command{
	Use:   "show [index]",
	Short: "Print a snapshot by recency index (1 is the most recent)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMemoryShow,
}

func init() {
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryShowCmd)
	rootCmd.AddCommand(memoryCmd)
}

func openStore(cmd *cobra.Command) (*memory.Store, func(), error) {
	cfg, appLogger, err := loadRuntime()
	if err != nil {
		return nil, nil, err
	}

	store, err := memory.NewStore(cfg.DataDir, cfg.Memory.MaxFiles, appLogger.Zerolog())
	if err != nil {
		appLogger.Close()
		return nil, nil, fmt.Errorf("failed to open memory store: %w", err)
	}

	return store, func() { appLogger.Close() }, nil
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	files, err := store.List()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Println("no snapshots stored")
		return nil
	}

	for i, file := range files {
		// Recency index counts back from the newest file
		fmt.Printf("%d: %s\n", len(files)-i, filepath.Base(file))
	}
	return nil
}

func runMemoryShow(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	index := 1
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &index); err != nil {
			return fmt.Errorf("invalid index: %s", args[0])
		}
	}

	snapshot, ok, err := store.LoadByIndex(index)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no snapshot at index %d", index)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
