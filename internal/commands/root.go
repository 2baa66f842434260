package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/txreport/txreport/internal/buildinfo"
	"github.com/txreport/txreport/internal/config"
	"github.com/txreport/txreport/internal/importer"
	"github.com/txreport/txreport/internal/logger"
	"github.com/txreport/txreport/internal/mailer"
	"github.com/txreport/txreport/internal/pipeline"
)

type rootOptions struct {
	configPath string
	envFiles   []string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "txreport",
		Short:   "Monthly transaction reports from CSV exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "env files loaded before the config, overriding the environment")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// load resolves the effective config: env files, then the YAML file, then
// environment variables.
func (o *rootOptions) load() (*config.Config, error) {
	if err := config.LoadEnvFiles(o.envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOptional(o.configPath)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withLogger attaches a console logger at the configured level to ctx.
func withLogger(ctx context.Context, cfg *config.Config) (context.Context, zerolog.Logger) {
	log := logger.New(cfg.LogLevel)
	return logger.WithContext(ctx, log), log
}

func newProcessor(cfg *config.Config) (*pipeline.Processor, error) {
	parser, err := importer.NewParser(cfg.Pipeline.Format, cfg.Pipeline.Encoding)
	if err != nil {
		return nil, fmt.Errorf("pipeline.format: %w", err)
	}
	opts := pipeline.Options{
		Workers:     cfg.Pipeline.Workers,
		DateLayouts: cfg.Pipeline.DateFormats,
	}
	return pipeline.NewProcessor(parser, opts, mailer.New(cfg.Email)), nil
}
