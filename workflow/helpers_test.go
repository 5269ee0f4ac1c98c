package workflow

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"predictdemo/dataset"
	"predictdemo/ml"
)

// stubClassifier predicts ">50K" for executives and "<=50K" for everyone else.
type stubClassifier struct {
	predict func(ml.Frame) ([]string, error)
	calls   int
}

func (s *stubClassifier) Predict(_ context.Context, frame ml.Frame) ([]string, error) {
	s.calls++
	if s.predict != nil {
		return s.predict(frame)
	}
	col := -1
	for i, name := range frame.Columns() {
		if name == "occupation" {
			col = i
		}
	}
	labels := make([]string, frame.NumRows())
	for row := range labels {
		labels[row] = "<=50K"
		if col >= 0 && frame.Cell(row, col) == "Exec-managerial" {
			labels[row] = ">50K"
		}
	}
	return labels, nil
}

func (s *stubClassifier) Algorithm() string      { return "stub" }
func (s *stubClassifier) Features() []ml.Feature { return nil }
func (s *stubClassifier) Classes() []string      { return []string{"<=50K", ">50K"} }
func (s *stubClassifier) LibraryVersion() string { return "stub 0.0" }

const adultCSV = `age,occupation,income
39, Adm-clerical, <=50K
52, Exec-managerial, >50K
28, Exec-managerial, <=50K
45, Adm-clerical, >50K
`

func adultArtifact(algorithm string) *ml.Artifact {
	tree := []ml.TreeNode{
		{FeatureIdx: 0, Threshold: 40, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
		{FeatureIdx: 1, Threshold: 0.5, LeftChild: 3, RightChild: 4},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true},
	}
	trees := [][]ml.TreeNode{tree}
	if algorithm == ml.AlgorithmRandomForest {
		trees = append(trees, tree, tree)
	}
	return &ml.Artifact{
		Algorithm:      algorithm,
		FormatVersion:  ml.FormatVersion,
		LibraryVersion: "exporter 1.3.2",
		Features: []ml.Feature{
			{Name: "age", Type: ml.FeatureNumeric},
			{Name: "occupation", Type: ml.FeatureCategorical, Categories: []string{"Adm-clerical", "Exec-managerial"}},
		},
		Classes: []string{"<=50K", ">50K"},
		Trees:   trees,
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeArtifact(t *testing.T, dir, name string, artifact *ml.Artifact) string {
	t.Helper()
	payload, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	return writeFile(t, dir, name, string(payload))
}

func adultVariant() Variant {
	return Variant{
		Name:        "adult-income",
		DatasetPath: "adult.csv",
		ModelPaths: map[Algorithm]string{
			RandomForest: "model_rf_adult_income.json",
			DecisionTree: "model_dt_adult_income.json",
		},
		LabelColumn:      "income",
		PredictionColumn: "Prediksi_Income",
		Classes:          []string{">50K", "<=50K"},
		TrimWhitespace:   true,
		PreviewRows:      5,
		ResultRows:       20,
	}
}

// adultDataDir writes both artifacts and the dataset into a fresh directory.
func adultDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeArtifact(t, dir, "model_rf_adult_income.json", adultArtifact(ml.AlgorithmRandomForest))
	writeArtifact(t, dir, "model_dt_adult_income.json", adultArtifact(ml.AlgorithmDecisionTree))
	writeFile(t, dir, "adult.csv", adultCSV)
	return dir
}

func mustTable(t *testing.T, csv string, trim bool) *dataset.Table {
	t.Helper()
	opts := dataset.LoadOptions{}
	if trim {
		opts.Rules = []dataset.CleaningRule{dataset.NewTrimSpaceRule()}
	}
	table, err := dataset.ReadCSV(strings.NewReader(csv), opts)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return table
}
