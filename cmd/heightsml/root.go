package main

import (
	"fmt"

	"github.com/YuminosukeSato/heightsml/datasets"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/YuminosukeSato/heightsml/report"
	"github.com/YuminosukeSato/heightsml/sklearn/model_selection"
	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	dataPath   string
	seed       uint64
	positive   string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "heightsml",
		Short:        "Predict sex from height with threshold classifiers",
		Long:         "heightsml evaluates height cutoffs for predicting sex: train/test split, confusion matrix, F1 tuning and ROC/precision-recall curves.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return log.SetupLogger(opts.logLevel, cmd.ErrOrStderr(), opts.pretty)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file (overrides "+report.ConfigEnv+" env var)")
	pf.StringVar(&opts.dataPath, "data", "", "CSV file with sex and height columns (default: synthetic sample)")
	pf.Uint64Var(&opts.seed, "seed", 0, "random seed for the split and the guessing baseline")
	pf.StringVar(&opts.positive, "positive", "", "positive class, Female or Male")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolVar(&opts.pretty, "pretty", false, "human-readable logs instead of JSON")

	root.AddCommand(
		newReportCmd(opts),
		newSummaryCmd(opts),
		newGenerateCmd(opts),
		newEvaluateCmd(opts),
		newSweepCmd(opts),
		newCurveCmd(opts),
		newVersionCmd(),
	)
	return root
}

// config loads the config file and applies any flags set on the command
// line on top of it.
func (o *options) config(cmd *cobra.Command) (report.Config, error) {
	cfg, err := report.LoadConfig(o.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataPath = o.dataPath
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("positive") {
		cfg.Positive = o.positive
	}
	return cfg, cfg.Validate()
}

// split loads the data and partitions it like the report does.
func split(cfg report.Config) (train, test *datasets.Heights, err error) {
	h, err := report.LoadData(cfg)
	if err != nil {
		return nil, nil, err
	}
	return model_selection.SplitHeights(h, cfg.TestFraction, cfg.Seed)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "heightsml", version)
		},
	}
}
