package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/YuminosukeSato/heightsml/datasets"
	"github.com/YuminosukeSato/heightsml/metrics"
	"github.com/YuminosukeSato/heightsml/sklearn/threshold"
	"github.com/spf13/cobra"
)

func newEvaluateCmd(opts *options) *cobra.Command {
	var cutoff float64
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Print the confusion matrix and statistics of a fixed cutoff on the test set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			positive, _ := cfg.PositiveSex()
			train, test, err := split(cfg)
			if err != nil {
				return err
			}
			clf := threshold.NewCutoffClassifier(
				threshold.WithCutoff(cutoff),
				threshold.WithPositive(positive.Label()),
			)
			if err := clf.Fit(train.X(), train.Y()); err != nil {
				return err
			}
			cm, err := clf.ConfusionMatrix(test.X(), test.Y())
			if err != nil {
				return err
			}
			r, err := metrics.NewReport(cm, datasets.ClassNames())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Predict Male when height > %g\n\n%s", cutoff, r)
			return nil
		},
	}
	cmd.Flags().Float64Var(&cutoff, "cutoff", 64, "height cutoff in inches")
	return cmd
}

func newSweepCmd(opts *options) *cobra.Command {
	var metric string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Choose the cutoff that maximises accuracy or F1 on the training set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			criterion, err := threshold.ParseCriterion(metric)
			if err != nil {
				return err
			}
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			positive, _ := cfg.PositiveSex()
			train, test, err := split(cfg)
			if err != nil {
				return err
			}
			candidates := cfg.AccuracyCutoffs
			if criterion == threshold.CriterionF1 {
				candidates = cfg.F1Cutoffs
			}
			clf := threshold.NewCutoffClassifier(
				threshold.WithCandidates(candidates...),
				threshold.WithCriterion(criterion),
				threshold.WithPositive(positive.Label()),
			)
			if err := clf.Fit(train.X(), train.Y()); err != nil {
				return err
			}
			cm, err := clf.ConfusionMatrix(test.X(), test.Y())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := writeScores(out, clf.Sweep()); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nbest cutoff by %s: %g\n", criterion, clf.Cutoff())
			fmt.Fprintf(out, "test accuracy: %.4f  F1: %.4f  sensitivity: %.4f  specificity: %.4f\n",
				cm.Accuracy(), cm.F1(), cm.Sensitivity(), cm.Specificity())
			return nil
		},
	}
	cmd.Flags().StringVarP(&metric, "metric", "m", "accuracy", "selection metric: accuracy or f1")
	return cmd
}

func writeScores(out io.Writer, scores []threshold.CutoffScore) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "cutoff\taccuracy\tF1\tsensitivity\tspecificity")
	for _, s := range scores {
		fmt.Fprintf(w, "%g\t%.4f\t%.4f\t%.4f\t%.4f\n", s.Threshold, s.Accuracy, s.F1, s.Sensitivity, s.Specificity)
	}
	return w.Flush()
}

func newCurveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "curve {roc|pr}",
		Short:     "Print ROC or precision-recall points for guessing and height cutoffs on the test set",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"roc", "pr"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			positive, _ := cfg.PositiveSex()
			_, test, err := split(cfg)
			if err != nil {
				return err
			}
			guess, err := threshold.EvaluateGuessing(test.Y(), cfg.GuessProbabilities, cfg.Seed, positive.Label())
			if err != nil {
				return err
			}
			height, err := threshold.EvaluateCutoffs(test.X(), test.Y(), cfg.ROCCutoffs, positive.Label())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			row := rocRow
			if args[0] == "pr" {
				row = prRow
				fmt.Fprintf(w, "method\tthreshold\trecall\tprecision\t(%s positive)\n", positive)
			} else {
				fmt.Fprintf(w, "method\tthreshold\tFPR\tTPR\t(%s positive)\n", positive)
			}
			for _, s := range guess {
				row(w, "guess", s)
			}
			for _, s := range height {
				row(w, "height", s)
			}
			return w.Flush()
		},
	}
}

func rocRow(w io.Writer, method string, s threshold.CutoffScore) {
	fmt.Fprintf(w, "%s\t%.4g\t%.4f\t%.4f\t\n", method, s.Threshold, s.FPR(), s.Sensitivity)
}

func prRow(w io.Writer, method string, s threshold.CutoffScore) {
	precision := "NA"
	if s.PrecisionDefined() {
		precision = fmt.Sprintf("%.4f", s.Precision)
	}
	fmt.Fprintf(w, "%s\t%.4g\t%.4f\t%s\t\n", method, s.Threshold, s.Sensitivity, precision)
}
