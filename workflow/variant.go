package workflow

import (
	"errors"
	"fmt"
	"sort"

	"predictdemo/dataset"
	"predictdemo/ml"
)

type Algorithm string

const (
	RandomForest Algorithm = ml.AlgorithmRandomForest
	DecisionTree Algorithm = ml.AlgorithmDecisionTree
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case RandomForest, DecisionTree:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown algorithm %q", s)
	}
}

// Label is the display name of the algorithm.
func (a Algorithm) Label() string {
	switch a {
	case RandomForest:
		return "Random Forest"
	case DecisionTree:
		return "Decision Tree"
	default:
		return string(a)
	}
}

// Variant describes one classification problem the demo serves.
type Variant struct {
	Name        string
	Title       string
	Description string
	Topic       string

	DatasetPath     string
	DatasetEncoding string
	ModelPaths      map[Algorithm]string

	LabelColumn      string
	PredictionColumn string
	Classes          []string

	TrimWhitespace bool
	PreviewRows    int
	// ResultRows limits the rendered result table; 0 renders every row.
	ResultRows int
}

func (v Variant) Validate() error {
	if v.Name == "" {
		return errors.New("variant name is required")
	}
	if v.DatasetPath == "" {
		return fmt.Errorf("variant %s: dataset path is required", v.Name)
	}
	if len(v.ModelPaths) == 0 {
		return fmt.Errorf("variant %s: at least one model path is required", v.Name)
	}
	for alg, path := range v.ModelPaths {
		if _, err := ParseAlgorithm(string(alg)); err != nil {
			return fmt.Errorf("variant %s: %w", v.Name, err)
		}
		if path == "" {
			return fmt.Errorf("variant %s: empty model path for %s", v.Name, alg)
		}
	}
	if v.LabelColumn == "" || v.PredictionColumn == "" {
		return fmt.Errorf("variant %s: label and prediction columns are required", v.Name)
	}
	if len(v.Classes) != 2 || v.Classes[0] == v.Classes[1] {
		return fmt.Errorf("variant %s: exactly two distinct classes are required", v.Name)
	}
	if v.PreviewRows < 0 || v.ResultRows < 0 {
		return fmt.Errorf("variant %s: row limits must not be negative", v.Name)
	}
	return nil
}

// Algorithms lists the configured algorithms, random forest first.
func (v Variant) Algorithms() []Algorithm {
	algs := make([]Algorithm, 0, len(v.ModelPaths))
	for alg := range v.ModelPaths {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] > algs[j] })
	return algs
}

func (v Variant) ModelPath(alg Algorithm) (string, error) {
	path, ok := v.ModelPaths[alg]
	if !ok {
		return "", fmt.Errorf("variant %s has no %s model", v.Name, alg)
	}
	return path, nil
}

func (v Variant) LoadOptions() dataset.LoadOptions {
	opts := dataset.LoadOptions{Encoding: v.DatasetEncoding}
	if v.TrimWhitespace {
		opts.Rules = append(opts.Rules, dataset.NewTrimSpaceRule())
	}
	return opts
}

// Selection is the user's current choice, passed explicitly through every call.
type Selection struct {
	Variant   Variant
	Algorithm Algorithm
}

func (s Selection) ModelPath() (string, error) {
	return s.Variant.ModelPath(s.Algorithm)
}

func DefaultVariants() []Variant {
	return []Variant{
		{
			Name:        "adult-income",
			Title:       "Income Level Prediction",
			Description: "Random Forest and Decision Tree classifiers predicting whether an individual earns <=50K or >50K.",
			Topic:       "Adult Census Income Prediction",
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
		},
		{
			Name:        "attrition",
			Title:       "Employee Attrition Prediction",
			Description: "Random Forest and Decision Tree classifiers predicting whether an employee will leave the company.",
			Topic:       "Employee Attrition Prediction",
			DatasetPath: "attrition.csv",
			ModelPaths: map[Algorithm]string{
				RandomForest: "model_rf_attrition.json",
				DecisionTree: "model_dt_attrition.json",
			},
			LabelColumn:      "Attrition",
			PredictionColumn: "Prediksi_Attrition",
			Classes:          []string{"Yes", "No"},
			PreviewRows:      5,
			ResultRows:       20,
		},
		{
			Name:        "attrition-full",
			Title:       "Employee Attrition Prediction (full table)",
			Description: "Batch attrition prediction over the whole dataset.",
			Topic:       "Employee Attrition Prediction",
			DatasetPath: "attrition.csv",
			ModelPaths: map[Algorithm]string{
				RandomForest: "model_rf_attrition.json",
				DecisionTree: "model_dt_attrition.json",
			},
			LabelColumn:      "Attrition",
			PredictionColumn: "Hasil_Prediksi",
			Classes:          []string{"Yes", "No"},
			PreviewRows:      5,
			ResultRows:       0,
		},
	}
}

// Catalogue indexes variants by name, preserving configuration order.
type Catalogue struct {
	variants []Variant
	byName   map[string]int
}

func NewCatalogue(variants []Variant) (*Catalogue, error) {
	c := &Catalogue{byName: make(map[string]int, len(variants))}
	for _, v := range variants {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[v.Name]; dup {
			return nil, fmt.Errorf("duplicate variant %s", v.Name)
		}
		c.byName[v.Name] = len(c.variants)
		c.variants = append(c.variants, v)
	}
	return c, nil
}

func (c *Catalogue) Get(name string) (Variant, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return Variant{}, false
	}
	return c.variants[idx], true
}

func (c *Catalogue) All() []Variant {
	return append([]Variant(nil), c.variants...)
}
