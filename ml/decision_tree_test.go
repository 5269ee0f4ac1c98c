package ml

import (
	"context"
	"errors"
	"testing"
)

type testFrame struct {
	columns []string
	rows    [][]string
}

func (f *testFrame) Columns() []string        { return f.columns }
func (f *testFrame) NumRows() int             { return len(f.rows) }
func (f *testFrame) Cell(row, col int) string { return f.rows[row][col] }

func incomeTree() []TreeNode {
	return []TreeNode{
		{FeatureIdx: 0, Threshold: 40, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
		{FeatureIdx: 1, Threshold: 0.5, LeftChild: 3, RightChild: 4},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 0, IsLeaf: true},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: 1, IsLeaf: true},
	}
}

func incomeArtifact(algorithm string, trees ...[]TreeNode) *Artifact {
	return &Artifact{
		Algorithm:      algorithm,
		FormatVersion:  FormatVersion,
		LibraryVersion: "test-exporter 0.1",
		Features: []Feature{
			{Name: "age", Type: FeatureNumeric},
			{Name: "occupation", Type: FeatureCategorical, Categories: []string{"Adm-clerical", "Exec-managerial"}},
		},
		Classes: []string{"<=50K", ">50K"},
		Trees:   trees,
	}
}

func TestDecisionTreePredict(t *testing.T) {
	model, err := NewDecisionTree(incomeArtifact(AlgorithmDecisionTree, incomeTree()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame := &testFrame{
		columns: []string{"occupation", "age"},
		rows: [][]string{
			{"Adm-clerical", "39"},
			{"Exec-managerial", "52"},
			{"Adm-clerical", " 61 "},
		},
	}
	labels, err := model.Predict(context.Background(), frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"<=50K", ">50K", "<=50K"}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("row %d: expected %q, got %q", i, want[i], labels[i])
		}
	}
}

func TestDecisionTreeSchemaMismatch(t *testing.T) {
	model, err := NewDecisionTree(incomeArtifact(AlgorithmDecisionTree, incomeTree()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		frame *testFrame
	}{
		{
			name:  "missing column",
			frame: &testFrame{columns: []string{"age"}, rows: [][]string{{"39"}}},
		},
		{
			name:  "extra column",
			frame: &testFrame{columns: []string{"age", "occupation", "income"}, rows: [][]string{{"39", "Adm-clerical", "<=50K"}}},
		},
		{
			name:  "non numeric value",
			frame: &testFrame{columns: []string{"age", "occupation"}, rows: [][]string{{"old", "Adm-clerical"}}},
		},
		{
			name:  "padded category",
			frame: &testFrame{columns: []string{"age", "occupation"}, rows: [][]string{{"39", " Adm-clerical"}}},
		},
		{
			name:  "empty numeric value",
			frame: &testFrame{columns: []string{"age", "occupation"}, rows: [][]string{{"", "Adm-clerical"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := model.Predict(context.Background(), tt.frame)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Fatalf("expected schema mismatch, got %v", err)
			}
			if labels != nil {
				t.Fatalf("expected no labels on failure, got %v", labels)
			}
		})
	}
}

func TestDecisionTreeHonoursCancellation(t *testing.T) {
	model, err := NewDecisionTree(incomeArtifact(AlgorithmDecisionTree, incomeTree()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frame := &testFrame{columns: []string{"age", "occupation"}, rows: [][]string{{"39", "Adm-clerical"}}}
	if _, err := model.Predict(ctx, frame); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewDecisionTreeRejectsForest(t *testing.T) {
	artifact := incomeArtifact(AlgorithmDecisionTree, incomeTree(), incomeTree())
	if _, err := NewDecisionTree(artifact); !errors.Is(err, ErrCorruptArtifact) {
		t.Fatalf("expected corrupt artifact error, got %v", err)
	}
}
