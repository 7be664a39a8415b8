// Package log defines standard attribute keys for evaluation workflows.
//
// The keys follow a hierarchical naming convention ("model.name",
// "data.samples") so that log records from the split, the classifiers, the
// metrics and the report renderer can be filtered consistently.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of classifier.
	// Examples: "CutoffClassifier", "GuessClassifier", "StandardScaler"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a classifier instance (UUID string).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "split", "sweep", "render"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the evaluation.
	// Examples: "training", "testing"
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey record the sizes of a partition.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// SourceKey records where a dataset was read from ("synthetic" or a path).
	SourceKey = "data.source"

	// PositiveClassKey records the class treated as positive.
	PositiveClassKey = "data.positive_class"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// F1Key records the F1 score in [0, 1].
	F1Key = "metrics.f1"

	// SensitivityKey and SpecificityKey record TPR and TNR.
	SensitivityKey = "metrics.sensitivity"
	SpecificityKey = "metrics.specificity"

	// AUCKey records the area under a curve.
	AUCKey = "metrics.auc"

	// MetricKey names the metric a record refers to ("accuracy", "f1").
	MetricKey = "metrics.name"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// ThresholdKey records decision thresholds (height cutoffs or guessing probabilities).
	ThresholdKey = "preds.threshold"

	// CandidatesKey records how many thresholds a sweep evaluated.
	CandidatesKey = "preds.candidates"

	// FoldsKey records the number of cross-validation folds.
	FoldsKey = "cv.folds"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	// Populated by Error when the first field is an error.
	StacktraceKey = "error.stacktrace"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Configuration and Output
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigPathKey records the configuration file in use.
	ConfigPathKey = "config.path"

	// OutputDirKey records where a report is written.
	OutputDirKey = "output.dir"

	// FigureKey names a rendered figure file.
	FigureKey = "output.figure"

	// FigureCountKey records how many figures a report holds.
	FigureCountKey = "output.figures"

	// StepKey names a notebook step.
	StepKey = "report.step"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationSplit   = "split"
	OperationSweep   = "sweep"
	OperationRender  = "render"
	OperationLoad    = "load"

	PhaseTraining = "training"
	PhaseTesting  = "testing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorUndefinedMetric   = "UNDEFINED_METRIC"
)
