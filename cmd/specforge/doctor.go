package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/processor"
	"github.com/specforged/specforge/internal/queue"
	"github.com/specforged/specforge/internal/sandbox"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Inspect the on-disk operation queue for depth, age, and retry pressure",
		Long: "doctor reads mcp-operations.json directly rather than querying a running\n" +
			"server, so it reports the durable queue state rather than the live cache;\n" +
			"ported in spirit from the performance dashboard of the system this command\n" +
			"line tool is modeled on.",
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
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
	q, _, err := queue.Load(paths.Queue)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}

	byStatus := map[queue.Status]int{}
	byType := map[queue.Type]int{}
	var oldestPending *queue.Operation
	var retrying int
	now := time.Now()

	for _, op := range q.Operations {
		byStatus[op.Status]++
		byType[op.Type]++
		if op.RetryCount > 0 {
			retrying++
		}
		if op.Status == queue.StatusPending && (oldestPending == nil || op.SubmittedAt.Before(oldestPending.SubmittedAt)) {
			oldestPending = op
		}
	}

	fmt.Printf("queue: %d operations, version=%d\n", len(q.Operations), q.Version)
	fmt.Println("by status:")
	for _, s := range []queue.Status{queue.StatusPending, queue.StatusInProgress, queue.StatusCompleted, queue.StatusFailed} {
		fmt.Printf("  %-12s %d\n", s, byStatus[s])
	}

	types := make([]queue.Type, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return byType[types[i]] > byType[types[j]] })
	if len(types) > 0 {
		fmt.Println("by type:")
		for _, t := range types {
			fmt.Printf("  %-30s %d\n", t, byType[t])
		}
	}

	fmt.Printf("operations with at least one retry: %d\n", retrying)
	if oldestPending != nil {
		fmt.Printf("oldest pending operation: %s (%s ago, type=%s)\n",
			oldestPending.ID, now.Sub(oldestPending.SubmittedAt).Round(time.Second), oldestPending.Type)
	}
	if q.LastProcessed != nil {
		fmt.Printf("last processed: %s ago\n", now.Sub(*q.LastProcessed).Round(time.Second))
	}

	if byStatus[queue.StatusPending] > cfg.Queue.BatchCapacity*4 {
		fmt.Println("warning: pending backlog is more than 4 batches deep; the processor may be falling behind")
	}
	return nil
}
