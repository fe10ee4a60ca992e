package coretools

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/BrenchCC/MiniAgent-FromScratch/pkg/toolexec"
)

func systemInfoTool() toolexec.ToolDefinition {
	return toolexec.ToolDefinition{
		Name:        "system_info",
		Description: "Report host information: OS, architecture, CPU count, load average and runtime memory usage.",
		Category:    toolexec.CategorySystem,
		Parameters:  []toolexec.ToolParameter{},
		Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)

			info := map[string]interface{}{
				"hostname":   hostname,
				"os":         runtime.GOOS,
				"arch":       runtime.GOARCH,
				"num_cpu":    runtime.NumCPU(),
				"go_version": runtime.Version(),
				"goroutines": runtime.NumGoroutine(),
				"heap_alloc": memStats.HeapAlloc,
				"heap_sys":   memStats.HeapSys,
				"gc_cycles":  memStats.NumGC,
				"pid":        os.Getpid(),
			}

			if load, ok := readLoadAverage(); ok {
				info["load_average"] = load
			}
			if cwd, err := os.Getwd(); err == nil {
				info["working_dir"] = cwd
			}

			return info, nil
		},
	}
}

// readLoadAverage reads /proc/loadavg; unavailable outside Linux.
func readLoadAverage() ([]float64, bool) {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return nil, false
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return nil, false
	}

	load := make([]float64, 0, 3)
	for _, field := range fields[:3] {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, false
		}
		load = append(load, value)
	}
	return load, true
}
