package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/txreport/txreport/internal/pipeline"
)

func newRunCommand(root *rootOptions) *cobra.Command {
	var (
		monthArg  string
		input     string
		output    string
		sendEmail bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the report for one month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if input != "" {
				cfg.Input = input
			}
			if output != "" {
				cfg.Output = output
			}

			proc, err := newProcessor(cfg)
			if err != nil {
				return err
			}
			ctx, _ := withLogger(cmd.Context(), cfg)

			out, err := proc.ProcessMonth(ctx, pipeline.Request{
				Month:     monthArg,
				Input:     cfg.Input,
				Output:    cfg.Output,
				SendEmail: sendEmail,
			})
			if err != nil {
				return err
			}
			printOutcome(cmd, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&monthArg, "month", "", "target month in YYYY-MM format (required)")
	_ = cmd.MarkFlagRequired("month")
	cmd.Flags().StringVar(&input, "input", "", "CSV file or directory (default from config)")
	cmd.Flags().StringVar(&output, "output", "", "base output directory (default from config)")
	cmd.Flags().BoolVar(&sendEmail, "send-email", false, "send the report email")

	return cmd
}

func printOutcome(cmd *cobra.Command, out pipeline.Outcome) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Status:", out.Status)
	fmt.Fprintln(w, "Report XML:", out.ReportPath)
	if out.SummaryPath != "" {
		fmt.Fprintln(w, "Summary JSON:", out.SummaryPath)
	}
	if out.Email != nil {
		fmt.Fprintln(w, "Email:", out.Email.Status, "-", out.Email.Message)
	}
}
