package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/optimizer"
	"github.com/specforged/specforge/internal/processor"
	"github.com/specforged/specforge/internal/rediscache"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/specstore"
	"github.com/specforged/specforge/internal/telemetry"
	"github.com/specforged/specforge/pkg/mcpserver"
)

var httpAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the queue processor, background optimizer, and MCP server",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve MCP over HTTP on this address instead of stdio (e.g. :8765)")
	return cmd
}

// runServe wires the long-running pieces together and blocks until a
// signal or a transport error ends the process. Signal handling
// mirrors jra3-linear-fuse/internal/cmd/mount.go's sigChan-then-close
// shutdown, adapted to stop the processor (which itself waits for its
// current tick to finish) instead of unmounting a filesystem.
func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.New("specforge", "info", "json", os.Stderr)

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
	logger.Info("resolved project root", map[string]interface{}{"root": sb.Root()})

	store := specstore.New(sb, logger)
	if err := store.LoadAll(); err != nil {
		return fmt.Errorf("load specifications: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(cfg.Telemetry.Enabled, "specforge")
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	proc := processor.New(cfg, sb, store, logger)
	opt := optimizer.New(cfg, proc.QueuePath(), proc.Cache(), logger)

	if cfg.RedisURL != "" {
		mirror, err := rediscache.New(cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("redis sync mirror disabled: bad SPECFORGE_REDIS_URL", map[string]interface{}{"error": err.Error()})
		} else {
			proc.SetRedisMirror(mirror)
			defer mirror.Close()
		}
	}

	dispatcher := mcpserver.NewDispatcher(proc.QueuePath(), logger)
	server := mcpserver.New(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if watcher, err := fsnotify.NewWatcher(); err != nil {
		logger.Warn("fsnotify watcher disabled", map[string]interface{}{"error": err.Error()})
	} else {
		if err := watcher.Add(sb.Root()); err != nil {
			logger.Warn("fsnotify watch failed", map[string]interface{}{"error": err.Error()})
			watcher.Close()
		} else {
			go watchQueueFile(ctx, watcher, proc.QueuePath(), proc)
			go func() { <-ctx.Done(); watcher.Close() }()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down", nil)
		proc.Stop()
		cancel()
	}()

	procErr := make(chan error, 1)
	go func() { procErr <- proc.Run(ctx) }()
	go opt.Run(ctx)

	transportErr := make(chan error, 1)
	if httpAddr != "" {
		transport := mcpserver.NewHTTPTransport(server, logger)
		go func() { transportErr <- transport.Router().Run(httpAddr) }()
		logger.Info("mcp http transport listening", map[string]interface{}{"addr": httpAddr})
	} else {
		transport := mcpserver.NewStdioTransport(server, os.Stdin, os.Stdout, logger)
		go func() { transportErr <- transport.Serve(ctx) }()
	}

	select {
	case err := <-procErr:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("processor: %w", err)
		}
	case err := <-transportErr:
		cancel()
		proc.Stop()
		if err != nil {
			return fmt.Errorf("transport: %w", err)
		}
	}
	return nil
}

// watchQueueFile nudges proc on any filesystem event touching
// queuePath, shortening the wait before the next tick when the client
// writes a new operation. It never reads or writes the queue itself —
// the reactor's own tick does that — the watcher is a notify-only
// fast path, never a second writer.
func watchQueueFile(ctx context.Context, watcher *fsnotify.Watcher, queuePath string, proc *processor.Processor) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name == queuePath {
				proc.Nudge()
			}
		case <-watcher.Errors:
		}
	}
}
