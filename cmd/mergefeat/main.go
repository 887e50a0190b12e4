package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KyungWonPark/TractFeature/internal/config"
	"github.com/KyungWonPark/TractFeature/internal/feature"
)

func main() { // profileDir outJSON
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[Error] mergefeat: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
		logger     *zap.Logger
	)

	cmd := &cobra.Command{
		Use:   "mergefeat <profile_dir> <out_json>",
		Short: "Merge tract profile CSVs into a fixed-length feature vector",
		Long: `Reads <metric>_profiles.csv for each diffusion metric (fa, md, ad, rd)
in <profile_dir>, concatenates every bundle column in metric-major,
bundle-sorted order, pads or truncates to 128 values and writes the result.

The output is a JSON array unless <out_json> ends in .npy or .bin.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := config.Default()
			if configPath != "" {
				var err error
				cat, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			asm, err := feature.New(cat, feature.WithLogger(logger))
			if err != nil {
				return err
			}
			return asm.Run(cmd.Context(), args[0], args[1])
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML catalog overriding bundles, metrics and length")
	return cmd
}
