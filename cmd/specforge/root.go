// Package main is specforge's command-line entry point: a small Cobra
// tree (root.go grounded on hashmap-kz-katomik/cmd/root.go's
// SilenceErrors/SilenceUsage root command, signal handling grounded on
// jra3-linear-fuse/internal/cmd/mount.go's sigChan pattern) wrapping
// the serve loop and a few operator utilities.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var projectRoot string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "specforge",
		Short:         "Specification-driven development assistant for editor MCP clients",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&projectRoot, "project-root", "", "project root (default: resolved the same way the MCP server resolves it)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newDoctorCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "specforge:", err)
		os.Exit(1)
	}
}
