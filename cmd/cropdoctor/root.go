package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/cropdoctor/diagnosis"
	"yashubustudio/cropdoctor/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "cropdoctor",
		Short: "Crop disease diagnosis service",
		Long: "cropdoctor classifies crop images into disease labels, rates their severity\n" +
			"and returns bilingual (English/Hindi) treatment advice.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newDiagnoseCmd(opts))
	root.AddCommand(newSeedCmd(opts))
	root.AddCommand(newDiseasesCmd(opts))
	return root
}

// load reads the configuration and builds the process logger.
func (o *rootOptions) load() (diagnosis.Config, *zap.Logger, error) {
	cfg, err := diagnosis.LoadConfig(strings.TrimSpace(o.configPath))
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

func randomSource(seed uint64) diagnosis.RandomSource {
	if seed == 0 {
		return nil
	}
	return diagnosis.NewSeededRandom(seed)
}
