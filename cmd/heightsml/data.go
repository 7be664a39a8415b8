package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/YuminosukeSato/heightsml/datasets"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/report"
	"github.com/spf13/cobra"
)

func newReportCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the full analysis and write a Markdown report with figures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			nb, err := report.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := nb.RenderTo(cmd.Context(), out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "report written to", filepath.Join(out, report.ReportFile))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "report", "output directory")
	return cmd
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print count, mean and standard deviation of height by sex",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			h, err := report.LoadData(cfg)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "sex\tn\tmean\tsd\tprevalence")
			for _, g := range h.Summary() {
				fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.4f\n", g.Sex, g.N, g.Mean, g.SD, h.Prevalence(g.Sex))
			}
			return w.Flush()
		},
	}
}

func newGenerateCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the synthetic heights sample as CSV",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			h, err := datasets.MakeHeights(datasets.WithSeed(cfg.Seed))
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return h.WriteCSV(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return errors.Wrapf(err, "create %s", out)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = errors.Wrapf(cerr, "close %s", out)
				}
			}()
			return h.WriteCSV(f)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}
