package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crate/internal/config"
	"crate/internal/daemon"
	"crate/internal/logging"
)

func newPrefetchCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "prefetch <album-id>...",
		Short: "Fetch and cache the given albums, then exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			// One-shot runs should not pick up the collection file.
			cfg.Paths.CollectionFile = ""

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return err
			}
			if err := d.Start(ctx); err != nil {
				return err
			}
			defer d.Stop()

			queued, skipped := d.Prefetch(ctx, args)
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d album(s), %d already cached\n", queued, skipped)
			if queued == 0 {
				return nil
			}

			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return context.Canceled
				case <-ticker.C:
				}
				stats := d.Status().Queue
				if stats.QueuedHigh+stats.QueuedLow+stats.Processing == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "done: %d album(s) cached\n", stats.Completed)
					return nil
				}
			}
		},
	}
}
