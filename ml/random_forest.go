package ml

import (
	"context"
	"fmt"
)

type RandomForest struct {
	treeModel
	trees [][]TreeNode
}

func NewRandomForest(artifact *Artifact) (*RandomForest, error) {
	if artifact.Algorithm != AlgorithmRandomForest {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrIncompatibleArtifact, AlgorithmRandomForest, artifact.Algorithm)
	}
	return &RandomForest{
		treeModel: newTreeModel(artifact),
		trees:     artifact.Trees,
	}, nil
}

func (rf *RandomForest) Predict(ctx context.Context, frame Frame) ([]string, error) {
	votes := make([]int, len(rf.artifact.Classes))
	return rf.predictFrame(ctx, frame, func(features []float64) (int, error) {
		for i := range votes {
			votes[i] = 0
		}
		for t, nodes := range rf.trees {
			class, err := walkTree(nodes, features)
			if err != nil {
				return 0, fmt.Errorf("tree %d: %w", t, err)
			}
			votes[class]++
		}
		return majorityVote(votes), nil
	})
}

// majorityVote breaks ties towards the lowest class index.
func majorityVote(votes []int) int {
	best := 0
	for class, count := range votes {
		if count > votes[best] {
			best = class
		}
	}
	return best
}
