// Package report runs the height-based sex prediction analysis end to end
// and writes it up as a Markdown notebook with figures.
package report

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/heightsml/datasets"
	"github.com/YuminosukeSato/heightsml/metrics"
	"github.com/YuminosukeSato/heightsml/pkg/errors"
	"github.com/YuminosukeSato/heightsml/pkg/log"
	"github.com/YuminosukeSato/heightsml/sklearn/model_selection"
	"github.com/YuminosukeSato/heightsml/sklearn/threshold"
	"github.com/YuminosukeSato/heightsml/viz"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
)

// CellKind distinguishes prose, console output and figures.
type CellKind int

const (
	MarkdownCell CellKind = iota
	OutputCell
	FigureCell
)

// Figure is a plot waiting to be rendered.
type Figure struct {
	Name    string // file name without extension
	Caption string
	Plot    *plot.Plot
}

// Cell is one block of the notebook.
type Cell struct {
	Kind   CellKind
	Text   string
	Figure *Figure
}

// PRCurves holds the precision-recall points for one positive class.
type PRCurves struct {
	Positive         datasets.Sex
	Guess            []threshold.CutoffScore
	Height           []threshold.CutoffScore
	AveragePrecision float64
}

// Results collects the numbers behind the notebook.
type Results struct {
	Data        *datasets.Heights
	Train, Test *datasets.Heights
	Positive    datasets.Sex

	GuessAccuracy float64
	Summary       []datasets.GroupSummary

	SDCutoff   float64
	SDAccuracy float64

	AccuracySweep  []threshold.CutoffScore
	AccuracyCutoff float64
	TestAccuracy   float64

	Matrix         *metrics.ConfusionMatrix
	ByClass        map[datasets.Sex]float64
	MalePrevalence float64
	Report         *metrics.Report

	F1Sweep         []threshold.CutoffScore
	F1Cutoff        float64
	TestF1          float64
	TestSensitivity float64
	TestSpecificity float64

	GuessROC  []threshold.CutoffScore
	HeightROC []threshold.CutoffScore
	HeightAUC float64

	PR []PRCurves

	CV *threshold.CVResult
}

// Notebook is the ordered output of Run.
type Notebook struct {
	Title   string
	Config  Config
	Cells   []Cell
	Results Results
}

func (nb *Notebook) markdown(format string, args ...any) {
	nb.Cells = append(nb.Cells, Cell{Kind: MarkdownCell, Text: fmt.Sprintf(format, args...)})
}

func (nb *Notebook) output(text string) {
	nb.Cells = append(nb.Cells, Cell{Kind: OutputCell, Text: strings.TrimRight(text, "\n")})
}

func (nb *Notebook) figure(name, caption string, p *plot.Plot) {
	nb.Cells = append(nb.Cells, Cell{Kind: FigureCell, Text: caption, Figure: &Figure{Name: name, Caption: caption, Plot: p}})
}

// Figures returns the figures in notebook order.
func (nb *Notebook) Figures() []*Figure {
	var out []*Figure
	for _, c := range nb.Cells {
		if c.Kind == FigureCell {
			out = append(out, c.Figure)
		}
	}
	return out
}

// LoadData reads cfg.DataPath, or synthesises the sample when it is empty.
func LoadData(cfg Config) (*datasets.Heights, error) {
	logger := log.GetLoggerWithName("report")
	if cfg.DataPath == "" {
		h, err := datasets.MakeHeights(datasets.WithSeed(cfg.Seed))
		if err != nil {
			return nil, err
		}
		logger.Info("Synthetic data generated",
			log.OperationKey, log.OperationLoad,
			log.SourceKey, "synthetic",
			log.SamplesKey, h.Len(),
			log.RandomSeedKey, cfg.Seed,
		)
		return h, nil
	}
	h, err := datasets.LoadHeightsFile(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Data loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, cfg.DataPath,
		log.SamplesKey, h.Len(),
	)
	return h, nil
}

type step func(ctx context.Context, nb *Notebook) error

// Run executes the analysis in order and returns the notebook.
func Run(ctx context.Context, cfg Config) (*Notebook, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	positive, _ := cfg.PositiveSex()
	nb := &Notebook{
		Title:   "Predicting sex from height",
		Config:  cfg,
		Results: Results{Positive: positive},
	}

	steps := []struct {
		name string
		fn   step
	}{
		{"data", stepData},
		{"split", stepSplit},
		{"guess", stepGuess},
		{"summary", stepSummary},
		{"sd_rule", stepSDRule},
		{"accuracy", stepAccuracy},
		{"confusion", stepConfusion},
		{"confusion_report", stepConfusionReport},
		{"f1", stepF1},
		{"roc", stepROC},
		{"precision_recall", stepPrecisionRecall},
		{"cross_validation", stepCrossValidation},
	}
	logger := log.GetLoggerWithName("report")
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		if err := s.fn(ctx, nb); err != nil {
			logger.Error("Notebook step failed", err, log.StepKey, s.name)
			return nil, errors.Wrapf(err, "step %s", s.name)
		}
		logger.Debug("Notebook step done", log.StepKey, s.name)
	}
	return nb, nil
}

func table(write func(w *tabwriter.Writer)) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	write(w)
	_ = w.Flush()
	return b.String()
}

func stepData(_ context.Context, nb *Notebook) error {
	h, err := LoadData(nb.Config)
	if err != nil {
		return err
	}
	nb.Results.Data = h

	source := "a synthetic sample shaped like the reported-heights survey"
	if nb.Config.DataPath != "" {
		source = "`" + nb.Config.DataPath + "`"
	}
	nb.markdown("We want to predict sex (Female or Male) from height in inches alone. The data is %s.", source)

	rows := min(nb.Config.HeadRows, h.Len())
	nb.output(table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "\tsex\theight\t")
		for i := 0; i < rows; i++ {
			fmt.Fprintf(w, "%d\t%s\t%.2f\t\n", i+1, h.Sex[i], h.Height[i])
		}
	}) + fmt.Sprintf("\n%d rows, 2 columns", h.Len()))
	return nil
}

func stepSplit(_ context.Context, nb *Notebook) error {
	train, test, err := model_selection.SplitHeights(nb.Results.Data, nb.Config.TestFraction, nb.Config.Seed)
	if err != nil {
		return err
	}
	nb.Results.Train, nb.Results.Test = train, test
	nb.markdown("A stratified random %.0f%% of each sex (seed %d) is held out as the test set; the rest is used for training.",
		nb.Config.TestFraction*100, nb.Config.Seed)
	nb.output(fmt.Sprintf("train: %d rows (%d Female, %d Male)\ntest:  %d rows (%d Female, %d Male)",
		train.Len(), train.Count(datasets.Female), train.Count(datasets.Male),
		test.Len(), test.Count(datasets.Female), test.Count(datasets.Male)))
	return nil
}

func stepGuess(_ context.Context, nb *Notebook) error {
	test := nb.Results.Test
	g := threshold.NewGuessClassifier(0.5, nb.Config.Seed)
	if err := g.Fit(test.X(), test.Y()); err != nil {
		return err
	}
	acc, err := g.Score(test.X(), test.Y())
	if err != nil {
		return err
	}
	nb.Results.GuessAccuracy = acc
	nb.markdown("## Guessing\n\nThe simplest baseline ignores height and guesses each sex with equal probability.")
	nb.output(fmt.Sprintf("accuracy of guessing: %.4f", acc))
	return nil
}

func stepSummary(_ context.Context, nb *Notebook) error {
	h := nb.Results.Data
	nb.Results.Summary = h.Summary()
	nb.markdown("## Heights by sex\n\nMales are slightly taller on average, which suggests predicting Male above some cutoff.")
	nb.output(table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "sex\tn\tmean\tsd\t")
		for _, g := range nb.Results.Summary {
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t\n", g.Sex, g.N, g.Mean, g.SD)
		}
	}))

	var groups []viz.Series
	for _, sex := range datasets.Sexes {
		if x := h.Heights(sex); len(x) > 0 {
			groups = append(groups, viz.Series{Name: sex.String(), X: x})
		}
	}
	p, err := viz.HeightHistogram(nb.Config.HistogramBins, groups...)
	if err != nil {
		return err
	}
	nb.figure("heights", "Distribution of heights by sex", p)
	return nil
}

func stepSDRule(_ context.Context, nb *Notebook) error {
	train, test := nb.Results.Train, nb.Results.Test
	clf, err := threshold.FitSDRule(train.X(), train.Y(), datasets.Male.Label(), nb.Config.SDMultiplier,
		threshold.WithPositive(nb.Results.Positive.Label()))
	if err != nil {
		return err
	}
	acc, err := clf.Score(test.X(), test.Y())
	if err != nil {
		return err
	}
	nb.Results.SDCutoff = clf.Cutoff()
	nb.Results.SDAccuracy = acc
	nb.markdown("## Within %g SD of the average male\n\nPredict Male when height exceeds the training male mean minus %g standard deviations.",
		nb.Config.SDMultiplier, nb.Config.SDMultiplier)
	nb.output(fmt.Sprintf("cutoff: %.2f\naccuracy: %.4f", clf.Cutoff(), acc))
	return nil
}

func cutoffSeries(scores []threshold.CutoffScore, c threshold.Criterion) viz.Series {
	s := viz.Series{X: make([]float64, len(scores)), Y: make([]float64, len(scores))}
	for i, sc := range scores {
		s.X[i] = sc.Threshold
		s.Y[i] = sc.Value(c)
	}
	return s
}

func sweepTable(scores []threshold.CutoffScore, c threshold.Criterion) string {
	return table(func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "cutoff\t%s\t\n", c)
		for _, s := range scores {
			fmt.Fprintf(w, "%g\t%.4f\t\n", s.Threshold, s.Value(c))
		}
	})
}

// fitOnTrain sweeps candidates on the training set by the given criterion.
func fitOnTrain(nb *Notebook, candidates []float64, c threshold.Criterion) (*threshold.CutoffClassifier, error) {
	train := nb.Results.Train
	clf := threshold.NewCutoffClassifier(
		threshold.WithCandidates(candidates...),
		threshold.WithCriterion(c),
		threshold.WithPositive(nb.Results.Positive.Label()),
	)
	if err := clf.Fit(train.X(), train.Y()); err != nil {
		return nil, err
	}
	return clf, nil
}

func stepAccuracy(_ context.Context, nb *Notebook) error {
	clf, err := fitOnTrain(nb, nb.Config.AccuracyCutoffs, threshold.CriterionAccuracy)
	if err != nil {
		return err
	}
	test := nb.Results.Test
	acc, err := clf.Score(test.X(), test.Y())
	if err != nil {
		return err
	}
	nb.Results.AccuracySweep = clf.Sweep()
	nb.Results.AccuracyCutoff = clf.Cutoff()
	nb.Results.TestAccuracy = acc

	nb.markdown("## Choosing the cutoff by accuracy\n\nEvery candidate cutoff is scored on the training set; the best one is then checked on the test set.")
	nb.output(sweepTable(nb.Results.AccuracySweep, threshold.CriterionAccuracy) +
		fmt.Sprintf("\nbest cutoff: %g\ntest accuracy: %.4f", clf.Cutoff(), acc))

	p, err := viz.MetricByCutoffPlot("Accuracy", cutoffSeries(nb.Results.AccuracySweep, threshold.CriterionAccuracy))
	if err != nil {
		return err
	}
	nb.figure("accuracy_by_cutoff", "Training accuracy by cutoff", p)
	return nil
}

// bestCutoffClassifier refits the accuracy-selected cutoff as a fixed rule.
func bestCutoffClassifier(nb *Notebook) (*threshold.CutoffClassifier, error) {
	train := nb.Results.Train
	clf := threshold.NewCutoffClassifier(
		threshold.WithCutoff(nb.Results.AccuracyCutoff),
		threshold.WithPositive(nb.Results.Positive.Label()),
	)
	if err := clf.Fit(train.X(), train.Y()); err != nil {
		return nil, err
	}
	return clf, nil
}

func stepConfusion(_ context.Context, nb *Notebook) error {
	clf, err := bestCutoffClassifier(nb)
	if err != nil {
		return err
	}
	test := nb.Results.Test
	cm, err := clf.ConfusionMatrix(test.X(), test.Y())
	if err != nil {
		return err
	}
	pred, err := clf.Predict(test.X())
	if err != nil {
		return err
	}
	r, _ := pred.Dims()
	byLabel, err := metrics.ByClassAccuracy(test.Y(), mat.NewVecDense(r, mat.Col(nil, 0, pred)))
	if err != nil {
		return err
	}
	nb.Results.Matrix = cm
	nb.Results.ByClass = make(map[datasets.Sex]float64, len(byLabel))
	for label, acc := range byLabel {
		sex, err := datasets.SexFromLabel(label)
		if err != nil {
			return err
		}
		nb.Results.ByClass[sex] = acc
	}
	nb.Results.MalePrevalence = test.Prevalence(datasets.Male)

	names := datasets.ClassNames()
	t := cm.Table()
	nb.markdown("## Confusion matrix\n\nOverall accuracy hides how differently the rule treats each sex.")
	nb.output(table(func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Prediction \\ Reference\t%s\t%s\t\n", names[0], names[1])
		for pred := 0; pred < 2; pred++ {
			fmt.Fprintf(w, "%s\t%d\t%d\t\n", names[pred], t[pred][0], t[pred][1])
		}
	}) + "\n" + table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "sex\taccuracy\t")
		for _, sex := range datasets.Sexes {
			if acc, ok := nb.Results.ByClass[sex]; ok {
				fmt.Fprintf(w, "%s\t%.4f\t\n", sex, acc)
			}
		}
	}) + fmt.Sprintf("\nprevalence of Male: %.4f", nb.Results.MalePrevalence))
	return nil
}

func stepConfusionReport(_ context.Context, nb *Notebook) error {
	r, err := metrics.NewReport(nb.Results.Matrix, datasets.ClassNames())
	if err != nil {
		return err
	}
	nb.Results.Report = r
	nb.markdown("Sensitivity and specificity with %s as the positive class:", nb.Results.Positive)
	nb.output(r.String())
	return nil
}

func stepF1(_ context.Context, nb *Notebook) error {
	clf, err := fitOnTrain(nb, nb.Config.F1Cutoffs, threshold.CriterionF1)
	if err != nil {
		return err
	}
	test := nb.Results.Test
	cm, err := clf.ConfusionMatrix(test.X(), test.Y())
	if err != nil {
		return err
	}
	nb.Results.F1Sweep = clf.Sweep()
	nb.Results.F1Cutoff = clf.Cutoff()
	nb.Results.TestF1 = cm.F1()
	nb.Results.TestSensitivity = cm.Sensitivity()
	nb.Results.TestSpecificity = cm.Specificity()

	nb.markdown("## Choosing the cutoff by F1\n\nThe F1 score balances precision and recall for the positive class, so it is less driven by the majority class.")
	nb.output(sweepTable(nb.Results.F1Sweep, threshold.CriterionF1) +
		fmt.Sprintf("\nbest cutoff: %g\ntest F1: %.4f\ntest sensitivity: %.4f\ntest specificity: %.4f",
			clf.Cutoff(), cm.F1(), cm.Sensitivity(), cm.Specificity()))

	p, err := viz.MetricByCutoffPlot("F1", cutoffSeries(nb.Results.F1Sweep, threshold.CriterionF1))
	if err != nil {
		return err
	}
	nb.figure("f1_by_cutoff", "Training F1 by cutoff", p)
	return nil
}

func thresholdLabels(scores []threshold.CutoffScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = fmt.Sprintf("%g", s.Threshold)
	}
	return out
}

func rocSeries(name string, scores []threshold.CutoffScore, labelled bool) viz.Series {
	s := viz.Series{Name: name, X: make([]float64, len(scores)), Y: make([]float64, len(scores))}
	for i, sc := range scores {
		s.X[i] = sc.FPR()
		s.Y[i] = sc.Sensitivity
	}
	if labelled {
		s.Labels = thresholdLabels(scores)
	}
	return s
}

func stepROC(_ context.Context, nb *Notebook) error {
	test := nb.Results.Test
	positive := nb.Results.Positive.Label()

	guess, err := threshold.EvaluateGuessing(test.Y(), nb.Config.GuessProbabilities, nb.Config.Seed, positive)
	if err != nil {
		return err
	}
	height, err := threshold.EvaluateCutoffs(test.X(), test.Y(), nb.Config.ROCCutoffs, positive)
	if err != nil {
		return err
	}
	nb.Results.GuessROC, nb.Results.HeightROC = guess, height

	clf, err := bestCutoffClassifier(nb)
	if err != nil {
		return err
	}
	scores, err := clf.DecisionFunction(test.X())
	if err != nil {
		return err
	}
	fpr, tpr, _, err := metrics.ROCCurve(test.Y(), scores, positive)
	if err != nil {
		return err
	}
	if nb.Results.HeightAUC, err = metrics.AUCFromCurve(fpr, tpr); err != nil {
		return err
	}

	nb.markdown("## ROC curve\n\nGuessing with probability p of Male traces the diagonal; height cutoffs do much better. Points are labelled with the cutoff.")
	nb.output(table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "method\tthreshold\tFPR\tTPR\t")
		for _, s := range guess {
			fmt.Fprintf(w, "guess\t%.2f\t%.4f\t%.4f\t\n", s.Threshold, s.FPR(), s.Sensitivity)
		}
		for _, s := range height {
			fmt.Fprintf(w, "height\t%g\t%.4f\t%.4f\t\n", s.Threshold, s.FPR(), s.Sensitivity)
		}
	}) + fmt.Sprintf("\nAUC of height (all thresholds): %.4f", nb.Results.HeightAUC))

	log.GetLoggerWithName("report").Info("ROC computed",
		log.PositiveClassKey, nb.Results.Positive.String(),
		log.AUCKey, nb.Results.HeightAUC,
	)

	p, err := viz.ROCPlot(rocSeries("Guessing", guess, false), rocSeries("Height cutoff", height, true))
	if err != nil {
		return err
	}
	nb.figure("roc", "ROC curve: guessing vs height cutoffs", p)
	return nil
}

// prSeries keeps only the points whose precision is defined.
func prSeries(name string, scores []threshold.CutoffScore, labelled bool) viz.Series {
	s := viz.Series{Name: name}
	for _, sc := range scores {
		if !sc.PrecisionDefined() {
			continue
		}
		s.X = append(s.X, sc.Sensitivity)
		s.Y = append(s.Y, sc.Precision)
		if labelled {
			s.Labels = append(s.Labels, fmt.Sprintf("%g", sc.Threshold))
		}
	}
	return s
}

func stepPrecisionRecall(_ context.Context, nb *Notebook) error {
	test := nb.Results.Test
	nb.markdown("## Precision and recall\n\nPrevalence matters here: precision depends on which sex is called positive.")

	for _, sex := range datasets.Sexes {
		positive := sex.Label()
		guess, err := threshold.EvaluateGuessing(test.Y(), nb.Config.GuessProbabilities, nb.Config.Seed, positive)
		if err != nil {
			return err
		}
		height, err := threshold.EvaluateCutoffs(test.X(), test.Y(), nb.Config.ROCCutoffs, positive)
		if err != nil {
			return err
		}
		clf := threshold.NewCutoffClassifier(threshold.WithCutoff(nb.Results.AccuracyCutoff), threshold.WithPositive(positive))
		if err := clf.Fit(nb.Results.Train.X(), nb.Results.Train.Y()); err != nil {
			return err
		}
		scores, err := clf.DecisionFunction(test.X())
		if err != nil {
			return err
		}
		ap, err := metrics.AveragePrecision(test.Y(), scores, positive)
		if err != nil {
			return err
		}
		nb.Results.PR = append(nb.Results.PR, PRCurves{Positive: sex, Guess: guess, Height: height, AveragePrecision: ap})

		gs, hs := prSeries("Guessing", guess, false), prSeries("Height cutoff", height, true)
		nb.output(fmt.Sprintf("%s positive: %d guessing points, %d cutoff points with defined precision\naverage precision of height: %.4f",
			sex, len(gs.X), len(hs.X), ap))
		var series []viz.Series
		for _, s := range []viz.Series{gs, hs} {
			if len(s.X) > 0 {
				series = append(series, s)
			}
		}
		p, err := viz.PrecisionRecallPlot("Precision-recall, "+sex.String()+" positive", series...)
		if err != nil {
			return err
		}
		nb.figure("pr_"+strings.ToLower(sex.String()), "Precision-recall with "+sex.String()+" as positive", p)
	}
	return nil
}

func stepCrossValidation(_ context.Context, nb *Notebook) error {
	if nb.Config.CVFolds < 2 {
		return nil
	}
	train := nb.Results.Train
	cv, err := threshold.CrossValidate(train.X(), train.Y(),
		model_selection.NewStratifiedKFold(nb.Config.CVFolds, true, nb.Config.Seed),
		threshold.WithCandidates(nb.Config.AccuracyCutoffs...),
		threshold.WithPositive(nb.Results.Positive.Label()),
	)
	if err != nil {
		return err
	}
	nb.Results.CV = cv
	nb.markdown("## Stability of the cutoff\n\nRepeating the accuracy sweep over %d stratified folds of the training set shows how much the chosen cutoff moves.", nb.Config.CVFolds)
	nb.output(table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "fold\tcutoff\ttrain\ttest\t")
		for i := range cv.Cutoffs {
			fmt.Fprintf(w, "%d\t%g\t%.4f\t%.4f\t\n", i+1, cv.Cutoffs[i], cv.TrainScores[i], cv.TestScores[i])
		}
	}) + fmt.Sprintf("\nmean held-out accuracy: %.4f (sd %.4f)", cv.MeanScore(), cv.StdScore()))
	return nil
}
