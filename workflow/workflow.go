// Package workflow implements the batch inference workflow: resolve a model
// artifact, load a dataset, run batch prediction and count the predicted labels.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"predictdemo/dataset"
	"predictdemo/ml"
)

// ResolveModel returns the classifier stored at path. A missing file is
// NotFound; any other failure to read or decode the artifact is a LoadError.
// Repeated calls are served from cache.
func ResolveModel(cache *ModelCache, path string) (ml.Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, loadFailure(path, err)
	}
	model, err := cache.Get(path)
	if err != nil {
		return nil, loadFailure(path, err)
	}
	return model, nil
}

func loadFailure(path string, err error) *Error {
	if errors.Is(err, fs.ErrNotExist) {
		return notFound("resolve_model", path)
	}
	return &Error{Kind: LoadError, Op: "resolve_model", Path: path, Err: err}
}

// LoadDataset reads the CSV at path. Schema problems are not detected here;
// they surface when the model is applied.
func LoadDataset(path string, opts dataset.LoadOptions) (*dataset.Table, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, notFound("load_dataset", path)
	}
	table, err := dataset.LoadCSV(path, opts)
	if err != nil {
		return nil, wrap("load_dataset", path, err)
	}
	return table, nil
}

type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Counts struct {
	Classes []LabelCount `json:"classes"`
	// Other counts predictions equal to none of the known classes.
	Other int `json:"other"`
}

func CountLabels(labels, classes []string) Counts {
	counts := Counts{Classes: make([]LabelCount, len(classes))}
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		counts.Classes[i] = LabelCount{Label: class}
		index[class] = i
	}
	for _, label := range labels {
		if i, ok := index[label]; ok {
			counts.Classes[i].Count++
		} else {
			counts.Other++
		}
	}
	return counts
}

func (c Counts) Of(label string) int {
	for _, lc := range c.Classes {
		if lc.Label == label {
			return lc.Count
		}
	}
	return 0
}

func (c Counts) Total() int {
	total := c.Other
	for _, lc := range c.Classes {
		total += lc.Count
	}
	return total
}

type Result struct {
	// Table is a copy of the input with the prediction column appended.
	Table  *dataset.Table
	Labels []string
	Counts Counts
}

// PredictBatch runs the model over every row of table. The label column is
// left out of the feature view when present. The input table is not modified
// and no partial result is returned on failure.
func PredictBatch(ctx context.Context, model ml.Classifier, table *dataset.Table, v Variant) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = unexpected(model, fmt.Errorf("panic during prediction: %v", r))
		}
	}()

	base := table
	if base.Index(v.PredictionColumn) >= 0 {
		base, _ = base.DropColumn(v.PredictionColumn)
	}
	features, _ := base.DropColumn(v.LabelColumn)

	labels, err := model.Predict(ctx, features)
	if err != nil {
		if errors.Is(err, ml.ErrSchemaMismatch) {
			return nil, &Error{Kind: SchemaMismatch, Op: "predict_batch", Err: err}
		}
		return nil, unexpected(model, err)
	}
	if len(labels) != base.NumRows() {
		return nil, unexpected(model, fmt.Errorf("model returned %d labels for %d rows", len(labels), base.NumRows()))
	}

	out, err := base.WithColumn(v.PredictionColumn, labels)
	if err != nil {
		return nil, unexpected(model, err)
	}
	return &Result{
		Table:  out,
		Labels: labels,
		Counts: CountLabels(labels, v.Classes),
	}, nil
}

func unexpected(model ml.Classifier, err error) *Error {
	detail := "inference " + ml.Version
	if model != nil && model.LibraryVersion() != "" {
		detail += ", artifact exported by " + model.LibraryVersion()
	}
	return &Error{Kind: UnexpectedError, Op: "predict_batch", Err: err, Detail: detail}
}
