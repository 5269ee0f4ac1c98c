package ml

import (
	"context"
	"errors"
	"fmt"
)

// treeModel holds what decision trees and forests share: the artifact header
// and the encoder built from it.
type treeModel struct {
	artifact *Artifact
	encoder  *featureEncoder
}

func newTreeModel(artifact *Artifact) treeModel {
	return treeModel{
		artifact: artifact,
		encoder:  newFeatureEncoder(artifact.Features),
	}
}

func (m treeModel) Algorithm() string { return m.artifact.Algorithm }

func (m treeModel) LibraryVersion() string { return m.artifact.LibraryVersion }

func (m treeModel) Features() []Feature {
	return append([]Feature(nil), m.artifact.Features...)
}

func (m treeModel) Classes() []string {
	return append([]string(nil), m.artifact.Classes...)
}

func (m treeModel) predictFrame(ctx context.Context, frame Frame, classify func([]float64) (int, error)) ([]string, error) {
	index, err := m.encoder.bind(frame.Columns())
	if err != nil {
		return nil, err
	}
	labels := make([]string, frame.NumRows())
	vector := make([]float64, len(m.artifact.Features))
	for row := range labels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.encoder.encode(frame, row, index, vector); err != nil {
			return nil, err
		}
		class, err := classify(vector)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		labels[row] = m.artifact.Classes[class]
	}
	return labels, nil
}

type DecisionTree struct {
	treeModel
	nodes []TreeNode
}

func NewDecisionTree(artifact *Artifact) (*DecisionTree, error) {
	if artifact.Algorithm != AlgorithmDecisionTree {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrIncompatibleArtifact, AlgorithmDecisionTree, artifact.Algorithm)
	}
	if len(artifact.Trees) != 1 {
		return nil, fmt.Errorf("%w: decision tree artifact holds %d trees", ErrCorruptArtifact, len(artifact.Trees))
	}
	return &DecisionTree{
		treeModel: newTreeModel(artifact),
		nodes:     artifact.Trees[0],
	}, nil
}

func (dt *DecisionTree) Predict(ctx context.Context, frame Frame) ([]string, error) {
	return dt.predictFrame(ctx, frame, func(features []float64) (int, error) {
		return walkTree(dt.nodes, features)
	})
}

func walkTree(nodes []TreeNode, features []float64) (int, error) {
	if len(nodes) == 0 {
		return 0, errors.New("model not trained")
	}
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}
