package commands

import (
	"github.com/spf13/cobra"

	"github.com/txreport/txreport/internal/api"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		host   string
		port   int
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if input != "" {
				cfg.Input = input
			}
			if output != "" {
				cfg.Output = output
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			proc, err := newProcessor(cfg)
			if err != nil {
				return err
			}
			ctx, log := withLogger(cmd.Context(), cfg)

			srv := api.NewServer(proc, api.Options{
				DefaultInput:  cfg.Input,
				Output:        cfg.Output,
				RatePerSecond: cfg.Server.RatePerSecond,
				Burst:         cfg.Server.Burst,
			}, log)
			return srv.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "listen host")
	cmd.Flags().IntVar(&port, "port", 8000, "listen port")
	cmd.Flags().StringVar(&input, "input", "", "default CSV input (default from config)")
	cmd.Flags().StringVar(&output, "output", "", "base output directory (default from config)")

	return cmd
}
