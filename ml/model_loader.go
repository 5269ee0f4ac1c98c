package ml

import (
	"fmt"
	"os"
)

// LoadModel reads and decodes the artifact at path. Filesystem errors are
// returned wrapped so callers can test for fs.ErrNotExist.
func LoadModel(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	artifact, err := DecodeArtifact(payload)
	if err != nil {
		return nil, err
	}
	return NewClassifier(artifact)
}

func NewClassifier(artifact *Artifact) (Classifier, error) {
	switch artifact.Algorithm {
	case AlgorithmDecisionTree:
		return NewDecisionTree(artifact)
	case AlgorithmRandomForest:
		return NewRandomForest(artifact)
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrIncompatibleArtifact, artifact.Algorithm)
	}
}
