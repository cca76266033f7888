package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/specforged/specforge/internal/config"
	"github.com/specforged/specforge/internal/logging"
	"github.com/specforged/specforge/internal/sandbox"
	"github.com/specforged/specforge/internal/specstore"
	"github.com/specforged/specforge/internal/wizard"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively create a new specification in this project",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
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

	store := specstore.New(sb, logging.NoOp())
	if err := store.LoadAll(); err != nil {
		return fmt.Errorf("load specifications: %w", err)
	}

	w := wizard.New(os.Stdin, os.Stdout, store)
	_, err = w.Run(sb.Root())
	return err
}
