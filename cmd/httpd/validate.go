package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sudip-ibm/httpd/internal/config"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse a site configuration and report any errors without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if _, _, _, _, _, err := doc.Build(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			fmt.Println("configuration OK")
			return nil
		},
	}
	flags := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", "httpd.yaml", "path to the site configuration file")
	cmd.Flags().AddFlagSet(flags)
	return cmd
}
