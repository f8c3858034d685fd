package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scorefusion/configs"
	"github.com/Aman-CERP/scorefusion/internal/config"
	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the scorefusion configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/scorefusion/config.yaml)
  3. The file given with --config
  4. Environment variables (SCOREFUSION_*)`,
		Example: `  # Create user config with defaults
  scorefusion config init

  # Show effective configuration
  scorefusion config show --config pipeline.yaml`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with defaults",
		Long: `Write the commented default configuration to the user config path, or to --path.

An existing file is left alone unless --force is given; it is then backed up
next to the original before being overwritten.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.GetUserConfigPath()
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&path, "path", "", "Write to this file instead of the user config path")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := ui.NewWriter(cmd.OutOrStdout())

	var backup string
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		if !force {
			out.Warningf("configuration already exists")
			out.Statusf("Location: %s", path)
			out.Statusf("Use --force to overwrite")
			return nil
		}
		b, err := config.Backup(path)
		if err != nil {
			return err
		}
		backup = b
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.IOError("failed to create config directory", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return ferrors.IOError("failed to write config file", err)
	}

	out.Successf("created %s", path)
	if backup != "" {
		out.Statusf("Previous configuration saved to %s", backup)
	}
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file layered over the user config")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
