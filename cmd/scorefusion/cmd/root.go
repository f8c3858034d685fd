// Package cmd provides the CLI commands for scorefusion.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scorefusion/internal/config"
	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/logging"
	"github.com/Aman-CERP/scorefusion/internal/profiling"
	"github.com/Aman-CERP/scorefusion/pkg/version"
)

// Persistent flags.
var (
	debugMode bool
	logLevel  string
	logFile   string
	profiles  profiling.Targets
	session   *profiling.Session
)

// NewRootCmd creates the root command for the scorefusion CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorefusion",
		Short: "Normalize and combine hybrid search scores",
		Long: `scorefusion merges the per-sub-query scores of a hybrid search into a
single ranked list.

Each sub-query's scores are normalized (min_max, l2, z_score, z_score_robust)
and then combined per document (arithmetic_mean, geometric_mean,
geometric_mean_with_negatives_support, harmonic_mean), optionally weighted.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: startProfiling,
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return stopProfiling()
		},
	}

	cmd.SetVersionTemplate("scorefusion version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")

	cmd.PersistentFlags().StringVar(&profiles.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profiles.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profiles.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newFuseCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newTechniquesCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfiling(_ *cobra.Command, _ []string) error {
	if !profiles.Enabled() {
		return nil
	}
	s, err := profiling.Start(profiles)
	if err != nil {
		return err
	}
	session = s
	return nil
}

func stopProfiling() error {
	s := session
	session = nil
	return s.Stop()
}

// setupLogging installs the default logger from cfg's logging section with
// command-line flags applied on top. The returned cleanup closes the log file.
func setupLogging(cfg *config.Config) (*slog.Logger, func(), error) {
	lc := logging.DefaultConfig()
	if cfg != nil {
		lc = cfg.LoggingSetup()
	}
	if logLevel != "" {
		if !logging.ValidLevel(logLevel) {
			return nil, nil, ferrors.ValidationError(fmt.Sprintf("invalid log level %q", logLevel), nil).
				WithSuggestion("use debug, info, warn or error")
		}
		lc.Level = logLevel
	}
	if debugMode {
		lc.Level = "debug"
	}
	if logFile != "" {
		lc.FilePath = logFile
	}

	logger, cleanup, err := logging.Setup(lc)
	if err != nil {
		return nil, nil, ferrors.IOError("failed to set up logging", err)
	}
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// Execute runs the root command and prints failures to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		// profiling is stopped by PostRun only on success
		_ = stopProfiling()
		fmt.Fprint(os.Stderr, ferrors.FormatForCLI(err))
	}
	return err
}
