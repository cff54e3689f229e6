package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"NewsLabeler/internal/app"
	"NewsLabeler/internal/config"
	"NewsLabeler/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "newslabel",
		Short:         "Label news articles with topic categories and regions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to YAML config (default $NEWSLABEL_CONFIG)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(newLabelCmd(flags), newAnalyzeCmd(flags), newAuditCmd(flags))
	return root
}

func newLabelCmd(flags *globalFlags) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label every row of a CSV dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := build(flags)
			if err != nil {
				return err
			}
			defer application.Close()

			summary, err := application.Label(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: labeled %d rows (%d unknown) into %s\n", summary.RunID, summary.Rows, summary.Unknown, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "news_data.csv", "input CSV dataset")
	cmd.Flags().StringVar(&output, "output", "news_data_labeled.csv", "labeled CSV output")
	return cmd
}

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var input, report string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute text statistics over a labeled dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := build(flags)
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.Analyze(cmd.Context(), input, report)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d rows, report written to %s\n", result.Rows, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "news_data_labeled.csv", "labeled CSV dataset")
	cmd.Flags().StringVar(&report, "report", "news_report.json", "JSON report output")
	return cmd
}

func newAuditCmd(flags *globalFlags) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the rows a labeling run stored in sqlite",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := build(flags)
			if err != nil {
				return err
			}
			defer application.Close()

			rows, err := application.Audit(cmd.Context(), runID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ROW\tSTATUS\tREGION\tCATEGORY\tSOURCE")
			for _, row := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					row.Labeled.Article.Index, row.Status, row.Labeled.Region,
					row.Labeled.CategoryString(), row.Labeled.Article.Source)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier printed by label")
	_ = cmd.MarkFlagRequired("run-id")
	return cmd
}

func build(flags *globalFlags) (*app.Application, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cfg, logger), nil
}
