package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the jobportal CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "jobportal",
		Short:        "Job board backend",
		Long:         `jobportal serves the job board HTTP API and manages its database schema.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
