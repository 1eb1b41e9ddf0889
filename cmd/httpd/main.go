// Command httpd runs the modular HTTP server whose per-request pipeline
// lives in internal/pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "httpd",
		Short: "A modular HTTP server with a per-request configuration pipeline",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	return root
}
