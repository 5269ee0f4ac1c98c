package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FormatVersion is the only artifact layout this package can decode.
const FormatVersion = 1

var (
	ErrCorruptArtifact      = errors.New("corrupt model artifact")
	ErrIncompatibleArtifact = errors.New("incompatible model artifact")
	ErrSchemaMismatch       = errors.New("feature schema mismatch")
)

type FeatureType string

const (
	FeatureNumeric     FeatureType = "numeric"
	FeatureCategorical FeatureType = "categorical"
)

type Feature struct {
	Name       string      `json:"name"`
	Type       FeatureType `json:"type"`
	Categories []string    `json:"categories,omitempty"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// Artifact is the on-disk form of a trained classifier.
type Artifact struct {
	Algorithm      string       `json:"algorithm"`
	FormatVersion  int          `json:"format_version"`
	LibraryVersion string       `json:"library_version"`
	Features       []Feature    `json:"features"`
	Classes        []string     `json:"classes"`
	Trees          [][]TreeNode `json:"trees"`
}

func DecodeArtifact(payload []byte) (*Artifact, error) {
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if artifact.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d (library %q), supported version is %d",
			ErrIncompatibleArtifact, artifact.FormatVersion, artifact.LibraryVersion, FormatVersion)
	}
	if err := artifact.validate(); err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (a *Artifact) validate() error {
	if len(a.Features) == 0 {
		return fmt.Errorf("%w: no features", ErrCorruptArtifact)
	}
	if len(a.Classes) < 2 {
		return fmt.Errorf("%w: expected at least two classes, got %d", ErrCorruptArtifact, len(a.Classes))
	}
	if len(a.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrCorruptArtifact)
	}
	seen := make(map[string]bool, len(a.Features))
	for i, feature := range a.Features {
		if feature.Name == "" {
			return fmt.Errorf("%w: feature %d has no name", ErrCorruptArtifact, i)
		}
		if seen[feature.Name] {
			return fmt.Errorf("%w: duplicate feature %q", ErrCorruptArtifact, feature.Name)
		}
		seen[feature.Name] = true
		switch feature.Type {
		case FeatureNumeric:
		case FeatureCategorical:
			if len(feature.Categories) == 0 {
				return fmt.Errorf("%w: categorical feature %q has no categories", ErrCorruptArtifact, feature.Name)
			}
		default:
			return fmt.Errorf("%w: feature %q has unknown type %q", ErrCorruptArtifact, feature.Name, feature.Type)
		}
	}
	for t, nodes := range a.Trees {
		if err := validateTree(nodes, len(a.Features), len(a.Classes)); err != nil {
			return fmt.Errorf("%w: tree %d: %v", ErrCorruptArtifact, t, err)
		}
	}
	return nil
}

// validateTree requires children to sit after their parent, which rules out
// cycles and keeps traversal bounded by len(nodes).
func validateTree(nodes []TreeNode, featureCount, classCount int) error {
	if len(nodes) == 0 {
		return errors.New("empty tree")
	}
	for idx, node := range nodes {
		if node.IsLeaf {
			if node.ClassLabel < 0 || node.ClassLabel >= classCount {
				return fmt.Errorf("node %d: class label %d out of range", idx, node.ClassLabel)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", idx, node.FeatureIdx)
		}
		if node.LeftChild <= idx || node.LeftChild >= len(nodes) {
			return fmt.Errorf("node %d: invalid left child %d", idx, node.LeftChild)
		}
		if node.RightChild <= idx || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: invalid right child %d", idx, node.RightChild)
		}
	}
	return nil
}
