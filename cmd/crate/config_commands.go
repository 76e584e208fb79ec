package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"crate/internal/config"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(configFlag))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if _, err := os.Stat(target); err == nil {
				if !overwrite {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				}
				if err := os.Remove(target); err != nil {
					return fmt.Errorf("remove existing config: %w", err)
				}
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}

			if err := config.WriteSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Destination for the sample config")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")
	return cmd
}

func newConfigShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, loaded, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			if loaded {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# built-in defaults (no config file found)")
			}
			encoded, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}
}
