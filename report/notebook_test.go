package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/YuminosukeSato/heightsml/datasets"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func silenceLogs(t *testing.T) *log.TestLogger {
	t.Helper()
	prev := log.GetProvider()
	provider, _ := log.NewTestLoggerProvider(log.LevelInfo)
	log.SetProvider(provider)
	t.Cleanup(func() { log.SetProvider(prev) })
	return provider.Logger()
}

func figureNames(nb *Notebook) []string {
	var names []string
	for _, f := range nb.Figures() {
		names = append(names, f.Name)
	}
	return names
}

func TestRunDefault(t *testing.T) {
	logger := silenceLogs(t)

	nb, err := Run(context.Background(), DefaultConfig())
	require.NoError(t, err)
	r := nb.Results

	t.Run("data and split", func(t *testing.T) {
		require.Equal(t, 1050, r.Data.Len())
		assert.Equal(t, r.Data.Len(), r.Train.Len()+r.Test.Len())
		// ceil(0.5 * n) of each sex is held out
		assert.Equal(t, 119, r.Test.Count(datasets.Female))
		assert.Equal(t, 406, r.Test.Count(datasets.Male))
		assert.InDelta(t, 406.0/525, r.MalePrevalence, 1e-12)
		assert.Equal(t, datasets.Female, r.Positive)
	})

	t.Run("baselines", func(t *testing.T) {
		assert.InDelta(t, 0.5, r.GuessAccuracy, 0.1)
		require.Len(t, r.Summary, 2)
		assert.Less(t, r.Summary[0].Mean, r.Summary[1].Mean)
		assert.InDelta(t, 69.3-2*3.61, r.SDCutoff, 1.5)
		assert.Greater(t, r.SDAccuracy, r.GuessAccuracy)
	})

	t.Run("cutoff selection", func(t *testing.T) {
		cfg := nb.Config
		assert.Len(t, r.AccuracySweep, len(cfg.AccuracyCutoffs))
		assert.Contains(t, cfg.AccuracyCutoffs, r.AccuracyCutoff)
		assert.Greater(t, r.TestAccuracy, r.GuessAccuracy)

		assert.Len(t, r.F1Sweep, len(cfg.F1Cutoffs))
		assert.Contains(t, cfg.F1Cutoffs, r.F1Cutoff)
		assert.Greater(t, r.TestF1, 0.0)
		assert.InDelta(t, 0.5, r.TestSensitivity, 0.5)
		assert.InDelta(t, 0.5, r.TestSpecificity, 0.5)
	})

	t.Run("confusion", func(t *testing.T) {
		require.NotNil(t, r.Matrix)
		assert.Equal(t, r.Test.Len(), r.Matrix.Total())
		assert.Equal(t, 0.0, r.Matrix.Positive)
		assert.InDelta(t, r.TestAccuracy, r.Matrix.Accuracy(), 1e-12)
		require.Contains(t, r.ByClass, datasets.Female)
		require.Contains(t, r.ByClass, datasets.Male)
		require.NotNil(t, r.Report)
		assert.Equal(t, "Female", r.Report.PositiveName())
	})

	t.Run("curves", func(t *testing.T) {
		cfg := nb.Config
		assert.Len(t, r.GuessROC, len(cfg.GuessProbabilities))
		assert.Len(t, r.HeightROC, len(cfg.ROCCutoffs))
		assert.Greater(t, r.HeightAUC, 0.7)
		assert.LessOrEqual(t, r.HeightAUC, 1.0)

		// cutoff 50 predicts everyone Male, so no Female is detected
		assert.Equal(t, 0.0, r.HeightROC[0].Sensitivity)
		assert.Equal(t, 0.0, r.HeightROC[0].FPR())

		require.Len(t, r.PR, 2)
		assert.Equal(t, datasets.Female, r.PR[0].Positive)
		assert.Equal(t, datasets.Male, r.PR[1].Positive)
		// the majority class is easier to be precise about
		assert.Greater(t, r.PR[1].AveragePrecision, r.PR[0].AveragePrecision)
	})

	t.Run("cross validation", func(t *testing.T) {
		require.NotNil(t, r.CV)
		assert.Len(t, r.CV.Cutoffs, nb.Config.CVFolds)
		for _, c := range r.CV.Cutoffs {
			assert.Contains(t, nb.Config.AccuracyCutoffs, c)
		}
	})

	t.Run("cells", func(t *testing.T) {
		assert.Equal(t,
			[]string{"heights", "accuracy_by_cutoff", "f1_by_cutoff", "roc", "pr_female", "pr_male"},
			figureNames(nb))
		assert.Equal(t, MarkdownCell, nb.Cells[0].Kind)
		for _, c := range nb.Cells {
			if c.Kind == FigureCell {
				require.NotNil(t, c.Figure)
				assert.NotNil(t, c.Figure.Plot)
			}
		}
	})

	assert.True(t, logger.ContainsMessage("Synthetic data generated"))
	assert.True(t, logger.ContainsMessage("ROC computed"))
}

func TestRunDeterministic(t *testing.T) {
	silenceLogs(t)
	cfg := DefaultConfig()
	cfg.CVFolds = 0

	a, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	b, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Results.GuessAccuracy, b.Results.GuessAccuracy)
	assert.Equal(t, a.Results.AccuracyCutoff, b.Results.AccuracyCutoff)
	assert.Equal(t, a.Results.HeightAUC, b.Results.HeightAUC)

	var ma, mb bytes.Buffer
	require.NoError(t, a.WriteMarkdown(&ma))
	require.NoError(t, b.WriteMarkdown(&mb))
	assert.Equal(t, ma.String(), mb.String())
}

func TestRunWithoutCrossValidation(t *testing.T) {
	silenceLogs(t)
	cfg := DefaultConfig()
	cfg.CVFolds = 0

	nb, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, nb.Results.CV)

	var md bytes.Buffer
	require.NoError(t, nb.WriteMarkdown(&md))
	assert.NotContains(t, md.String(), "Stability of the cutoff")
}

func TestRunMalePositive(t *testing.T) {
	silenceLogs(t)
	cfg := DefaultConfig()
	cfg.Positive = "Male"
	cfg.CVFolds = 0

	nb, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, datasets.Male, nb.Results.Positive)
	assert.Equal(t, 1.0, nb.Results.Matrix.Positive)
	assert.Equal(t, "Male", nb.Results.Report.PositiveName())
	assert.Greater(t, nb.Results.HeightAUC, 0.7)
}

func TestRunFromCSV(t *testing.T) {
	silenceLogs(t)

	var b strings.Builder
	b.WriteString("sex,height\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Female,%d\n", 60+i%5)
		fmt.Fprintf(&b, "Male,%d\n", 66+i%5)
	}
	cfg := DefaultConfig()
	cfg.DataPath = writeFile(t, "heights.csv", b.String())
	cfg.AccuracyCutoffs = []float64{65, 67}
	cfg.CVFolds = 2

	nb, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	r := nb.Results
	assert.Equal(t, 20, r.Data.Len())
	assert.Equal(t, 10, r.Test.Len())
	// 65 separates the classes
	assert.Equal(t, 65.0, r.AccuracyCutoff)
	assert.Equal(t, 1.0, r.TestAccuracy)
	assert.InDelta(t, 1.0, r.HeightAUC, 1e-12)
	require.NotNil(t, r.CV)
	assert.Len(t, r.CV.Cutoffs, 2)

	var md bytes.Buffer
	require.NoError(t, nb.WriteMarkdown(&md))
	assert.Contains(t, md.String(), "`"+cfg.DataPath+"`")
}

func TestRunErrors(t *testing.T) {
	silenceLogs(t)

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TestFraction = 2
		_, err := Run(context.Background(), cfg)
		var ve *errors.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, DefaultConfig())
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("missing data file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DataPath = filepath.Join(t.TempDir(), "absent.csv")
		_, err := Run(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "step data")
	})
}

func TestWriteMarkdown(t *testing.T) {
	silenceLogs(t)
	cfg := DefaultConfig()
	cfg.CVFolds = 0
	cfg.FigureFormat = "SVG"
	nb, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	var md bytes.Buffer
	require.NoError(t, nb.WriteMarkdown(&md))
	out := md.String()

	assert.True(t, strings.HasPrefix(out, "# Predicting sex from height\n"))
	assert.Contains(t, out, "## Confusion matrix")
	assert.Contains(t, out, "Confusion Matrix and Statistics")
	assert.Contains(t, out, "![ROC curve: guessing vs height cutoffs](figures/roc.svg)")
	assert.Contains(t, out, "(figures/pr_male.svg)")
	assert.Equal(t, 0, strings.Count(out, "```")%2, "unbalanced code fences")
}

func TestRenderTo(t *testing.T) {
	silenceLogs(t)
	cfg := DefaultConfig()
	cfg.CVFolds = 0
	nb, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, nb.RenderTo(context.Background(), dir))

	md, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "figures/heights.png")

	entries, err := os.ReadDir(filepath.Join(dir, FigureDir))
	require.NoError(t, err)
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	slices.Sort(got)
	assert.Equal(t, []string{
		"accuracy_by_cutoff.png", "f1_by_cutoff.png", "heights.png",
		"pr_female.png", "pr_male.png", "roc.png",
	}, got)

	data, err := os.ReadFile(filepath.Join(dir, FigureDir, "roc.png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestRenderToCancelled(t *testing.T) {
	silenceLogs(t)
	cfg := DefaultConfig()
	cfg.CVFolds = 0
	nb, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = nb.RenderTo(ctx, t.TempDir())
	assert.True(t, errors.Is(err, context.Canceled))
}
