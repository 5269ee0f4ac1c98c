package ml

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// featureEncoder turns frame rows into the numeric vectors the trees were built on.
type featureEncoder struct {
	features   []Feature
	categories []map[string]float64
}

func newFeatureEncoder(features []Feature) *featureEncoder {
	enc := &featureEncoder{
		features:   features,
		categories: make([]map[string]float64, len(features)),
	}
	for i, feature := range features {
		if feature.Type != FeatureCategorical {
			continue
		}
		codes := make(map[string]float64, len(feature.Categories))
		for code, category := range feature.Categories {
			codes[category] = float64(code)
		}
		enc.categories[i] = codes
	}
	return enc
}

// bind maps every feature to a frame column by name. The frame must carry
// exactly the trained feature set, each column once; column order is irrelevant.
func (e *featureEncoder) bind(columns []string) ([]int, error) {
	position := make(map[string]int, len(columns))
	var duplicated []string
	for i, name := range columns {
		if _, seen := position[name]; seen {
			duplicated = append(duplicated, name)
			continue
		}
		position[name] = i
	}

	var missing []string
	index := make([]int, len(e.features))
	known := make(map[string]bool, len(e.features))
	for i, feature := range e.features {
		known[feature.Name] = true
		col, ok := position[feature.Name]
		if !ok {
			missing = append(missing, feature.Name)
			continue
		}
		index[i] = col
	}

	var unexpected []string
	for _, name := range columns {
		if !known[name] {
			unexpected = append(unexpected, name)
		}
	}

	if len(missing) == 0 && len(unexpected) == 0 && len(duplicated) == 0 {
		return index, nil
	}
	sort.Strings(missing)
	sort.Strings(unexpected)
	sort.Strings(duplicated)
	var parts []string
	if len(duplicated) > 0 {
		parts = append(parts, fmt.Sprintf("feature names must be unique, duplicated: %s", strings.Join(duplicated, ", ")))
	}
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("feature names seen at fit time, yet now missing: %s", strings.Join(missing, ", ")))
	}
	if len(unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("feature names unseen at fit time: %s", strings.Join(unexpected, ", ")))
	}
	return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(parts, "; "))
}

func (e *featureEncoder) encode(frame Frame, row int, index []int, out []float64) error {
	for i, feature := range e.features {
		raw := frame.Cell(row, index[i])
		if feature.Type == FeatureCategorical {
			code, ok := e.categories[i][raw]
			if !ok {
				return fmt.Errorf("%w: row %d: column %q: found unknown category %q", ErrSchemaMismatch, row, feature.Name, raw)
			}
			out[i] = code
			continue
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			return fmt.Errorf("%w: row %d: column %q: missing numeric value", ErrSchemaMismatch, row, feature.Name)
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: row %d: column %q: could not convert string to float: %q", ErrSchemaMismatch, row, feature.Name, raw)
		}
		out[i] = parsed
	}
	return nil
}
