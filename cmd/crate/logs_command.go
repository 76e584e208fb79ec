package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"crate/internal/config"
	"crate/internal/logs"
)

func newLogsCommand(configFlag *string) *cobra.Command {
	var limit int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			path := filepath.Join(cfg.Paths.LogDir, "crated.log")
			err = logs.Tail(ctx, path, logs.TailOptions{Limit: limit, Follow: follow}, func(line string) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	return cmd
}
