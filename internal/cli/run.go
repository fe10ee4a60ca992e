package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BrenchCC/MiniAgent-FromScratch/internal/config"
	"github.com/BrenchCC/MiniAgent-FromScratch/internal/logger"
	"github.com/BrenchCC/MiniAgent-FromScratch/internal/metrics"
	"github.com/BrenchCC/MiniAgent-FromScratch/internal/tracing"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/agent"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/coretools"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/memory"
	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

var (
	runSessionKey string
	runWorkingDir string
	runNoMemory   bool
)

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a prompt through the agent",
	Long: `Run a single prompt through the agent loop. The model may call
tools before answering; the final response is printed to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runSessionKey, "session", "", "session key (generated when empty)")
	runCmd.Flags().StringVar(&runWorkingDir, "workdir", "", "workspace directory for file and shell tools")
	runCmd.Flags().BoolVar(&runNoMemory, "no-memory", false, "skip the conversation snapshot")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	cfg, appLogger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer appLogger.Close()

	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	if err := tracing.Init("miniagent"); err != nil {
		appLogger.Warn().Err(err).Msg("Failed to initialize tracing")
	}
	defer func() {
		if err := tracing.Shutdown(); err != nil {
			appLogger.Warn().Err(err).Msg("Failed to shut down tracing")
		}
	}()

	m := metrics.NewMetrics()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, m, appLogger)
	}

	if runNoMemory {
		cfg.Memory.Enabled = false
	}
	if runWorkingDir != "" {
		cfg.Tools.WorkspaceRoot = runWorkingDir
	}

	dispatcher, store, err := buildDispatcher(cfg, m, appLogger)
	if err != nil {
		return err
	}

	if store != nil {
		watcher, err := memory.NewWatcher(store, appLogger.Zerolog())
		if err != nil {
			appLogger.Warn().Err(err).Msg("Failed to watch memory directory")
		} else {
			defer watcher.Stop()
		}
	}

	provider, err := agent.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	runner := agent.NewRunner(cfg, provider, dispatcher, appLogger.Zerolog())
	runner.SetMetrics(m)
	if store != nil {
		runner.SetMemoryStore(store)
	}

	result, err := runner.Run(cmd.Context(), agent.RunParams{
		Prompt:     prompt,
		SessionKey: runSessionKey,
		WorkingDir: cfg.Tools.WorkspaceRoot,
	})
	if err != nil {
		return fmt.Errorf("agent run failed: %w", err)
	}
	if result.Aborted {
		return fmt.Errorf("agent run aborted")
	}

	fmt.Println(result.Response)
	return nil
}

// loadRuntime loads configuration and builds the application logger.
func loadRuntime() (*config.Config, *logger.Logger, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}

	appLogger, err := logger.New(logger.Config{
		Level:     level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}

// buildDispatcher assembles the tool registry and dispatcher. The returned
// store is nil when memory is disabled.
func buildDispatcher(cfg *config.Config, m *metrics.Metrics, appLogger *logger.Logger) (*toolexec.Dispatcher, *memory.Store, error) {
	registry := toolexec.NewRegistry()

	if err := coretools.RegisterCoreTools(registry, coretools.Options{
		WorkspaceRoot: cfg.Tools.WorkspaceRoot,
		ExecTimeout:   time.Duration(cfg.Tools.ExecTimeoutSec) * time.Second,
		HTTPTimeout:   time.Duration(cfg.Tools.HTTPTimeoutSec) * time.Second,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to register core tools: %w", err)
	}

	var store *memory.Store
	if cfg.Memory.Enabled {
		var err error
		store, err = memory.NewStore(cfg.DataDir, cfg.Memory.MaxFiles, appLogger.Zerolog())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open memory store: %w", err)
		}
		if err := memory.RegisterMemoryTools(registry, store); err != nil {
			return nil, nil, fmt.Errorf("failed to register memory tools: %w", err)
		}
	}

	m.ToolsRegistered.Set(float64(registry.Len()))

	dispatcher := toolexec.NewDispatcher(registry)
	dispatcher.SetMetrics(m)
	if cfg.Tools.ExecTimeoutSec > 0 {
		dispatcher.SetDefaultTimeout(time.Duration(cfg.Tools.ExecTimeoutSec) * time.Second)
	}

	return dispatcher, store, nil
}

func serveMetrics(addr string, m *metrics.Metrics, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	appLogger.Info().Str("addr", addr).Msg("Metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		appLogger.Warn().Err(err).Msg("Metrics endpoint stopped")
		fmt.Fprintf(os.Stderr, "metrics endpoint error: %v\n", err)
	}
}
