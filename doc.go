// Package heightsml predicts sex from height with threshold classifiers and
// evaluates them the way an introductory machine-learning course does.
//
// The module covers a stratified train/test split, a guessing baseline,
// cutoff rules chosen by accuracy or F1, the confusion matrix with
// sensitivity and specificity, and ROC and precision-recall curves. The
// report package ties these together into a Markdown notebook with plots.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/heightsml/datasets"
//	    "github.com/YuminosukeSato/heightsml/sklearn/model_selection"
//	    "github.com/YuminosukeSato/heightsml/sklearn/threshold"
//	)
//
//	func main() {
//	    h, err := datasets.MakeHeights()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    train, test, err := model_selection.SplitHeights(h, 0.5, 2007)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // Predict Male above the cutoff that maximises training F1
//	    clf := threshold.NewCutoffClassifier(
//	        threshold.WithCandidates(61, 62, 63, 64, 65, 66, 67, 68, 69, 70),
//	        threshold.WithCriterion(threshold.CriterionF1),
//	    )
//	    if err := clf.Fit(train.X(), train.Y()); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    cm, err := clf.ConfusionMatrix(test.X(), test.Y())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(clf.Cutoff(), cm.Sensitivity(), cm.Specificity())
//	}
//
// # Packages
//
//   - datasets: the (sex, height) table, CSV I/O and a synthetic sample
//   - sklearn/model_selection: stratified partition, KFold, StratifiedKFold
//   - sklearn/threshold: CutoffClassifier, the SD rule, GuessClassifier, cross-validation
//   - metrics: confusion matrix, sensitivity/specificity/F1, ROC and PR curves
//   - preprocessing: StandardScaler
//   - viz: ROC, precision-recall, metric-by-cutoff and histogram plots
//   - report: the end-to-end notebook and its Markdown rendering
//   - core/model: shared estimator interfaces, state and weight export
//   - core/parallel: parallel loops used by the sweeps
//   - pkg/errors, pkg/log: structured errors and logging
//
// The heightsml command in cmd/heightsml exposes the same analysis from the
// shell:
//
//	heightsml report --out report
//	heightsml sweep --metric f1 --positive Male
//	heightsml curve roc
package heightsml
