package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/processor"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/syncstate"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the last-written sync state document",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	var opts []config.Option
	if projectRoot != "" {
		opts = append(opts, config.WithSandboxRoot(projectRoot))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sb, err := sandbox.Resolve(cfg.Sandbox.RootOverride)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	paths := processor.NewPaths(sb.Root())
	data, err := os.ReadFile(paths.Sync)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no sync state written yet — has `specforge serve` run in this project?")
			return nil
		}
		return fmt.Errorf("read sync state: %w", err)
	}

	var state syncstate.State
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse sync state: %w", err)
	}

	fmt.Printf("pending=%d in_progress=%d completed=%d failed=%d active_conflicts=%d\n",
		state.Pending, state.InProgress, state.Completed, state.Failed, state.ActiveConflicts)
	fmt.Printf("server_online=%v last_heartbeat=%s last_sync=%s\n",
		state.ServerOnline, state.LastHeartbeat.Format("15:04:05"), state.LastSync.Format("15:04:05"))
	fmt.Printf("avg_operation_ms=%.1f last_duration_ms=%.1f queue_rate=%.2f/s\n",
		state.Performance.AverageOperationTimeMs, state.Performance.LastProcessingDuration, state.Performance.QueueProcessingRate)
	if len(state.Specifications) == 0 {
		return nil
	}
	fmt.Println("specifications:")
	for _, s := range state.Specifications {
		fmt.Printf("  %-24s status=%-12s version=%d modified=%s\n", s.SpecID, s.Status, s.Version, s.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}
