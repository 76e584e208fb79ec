package main

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "crate",
		Short:         "Music collection metadata cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newConfigCommand(&configFlag))
	rootCmd.AddCommand(newCacheCommand(&configFlag))
	rootCmd.AddCommand(newPrefetchCommand(&configFlag))
	rootCmd.AddCommand(newLogsCommand(&configFlag))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
