package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"crate/internal/catalog"
	"crate/internal/config"
	"crate/internal/logging"
	"crate/internal/ttlstore"
)

func newCacheCommand(configFlag *string) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the metadata caches",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(configFlag))
	return cacheCmd
}

func newCacheStatsCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache sizes from the snapshots on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			// Read-only view over the snapshot files; no daemon required.
			logger := logging.NewNop()
			releases := catalog.NewReleaseStore(cfg.Paths.CacheDir, cfg.CatalogTTL(), logger)
			albums := catalog.NewAlbumCache(cfg.Paths.CacheDir, cfg.CatalogTTL(), releases, logger)
			links := catalog.NewLinkCache(cfg.Paths.CacheDir, cfg.LinkTTL(), logger)
			for name, restore := range map[string]func() error{
				"releases": releases.Restore,
				"albums":   albums.Restore,
				"links":    links.Restore,
			} {
				if err := restore(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s snapshot unreadable: %v\n", name, err)
				}
			}

			coordinator := catalog.NewCoordinator(cfg.Paths.CacheDir, cfg.PersistInterval(), releases, albums, links, logger)
			aggregate := coordinator.AggregateStats()
			rows := make([][]string, 0, len(aggregate.Stores)+1)
			for _, s := range aggregate.Stores {
				rows = append(rows, statsRow(s))
			}
			rows = append(rows, []string{
				"total",
				strconv.Itoa(aggregate.Entries),
				formatBytes(aggregate.ApproxBytes),
				"",
			})

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Store", "Entries", "Approx Size", "Oldest Entry"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "Cache directory: %s\n", cfg.Paths.CacheDir)
			return nil
		},
	}
}

func statsRow(s ttlstore.Stats) []string {
	oldest := ""
	if !s.OldestEntry.IsZero() {
		oldest = s.OldestEntry.Format("2006-01-02 15:04")
	}
	return []string{
		s.Name,
		strconv.Itoa(s.Entries),
		formatBytes(s.ApproxBytes),
		oldest,
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n)
	suffixes := []string{"KiB", "MiB", "GiB"}
	idx := -1
	for value >= unit && idx < len(suffixes)-1 {
		value /= unit
		idx++
	}
	return fmt.Sprintf("%.1f %s", value, suffixes[idx])
}
