package ml

import "context"

// Version identifies the inference code shipped in this binary. It is reported
// with unexpected prediction failures next to the artifact's library version.
const Version = "predictdemo-ml/1.2.0"

const (
	AlgorithmDecisionTree = "decision_tree"
	AlgorithmRandomForest = "random_forest"
)

// Frame is the read-only tabular input of a batch prediction.
type Frame interface {
	Columns() []string
	NumRows() int
	Cell(row, col int) string
}

type Classifier interface {
	Predict(ctx context.Context, frame Frame) ([]string, error)
	Algorithm() string
	Features() []Feature
	Classes() []string
	LibraryVersion() string
}
