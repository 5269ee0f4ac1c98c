package workflow

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"predictdemo/dataset"
	"predictdemo/ml"
)

// State of a session: Unloaded -> ModelReady -> PredictionShown, with Failed
// reachable from Unloaded and ModelReady.
type State int

const (
	Unloaded State = iota
	ModelReady
	PredictionShown
	Failed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case ModelReady:
		return "model_ready"
	case PredictionShown:
		return "prediction_shown"
	default:
		return "failed"
	}
}

// ErrPreviewUnavailable is returned by Preview when the model artifact is missing.
var ErrPreviewUnavailable = errors.New("dataset preview unavailable")

// Session walks one selection through the workflow. It is not safe for
// concurrent use; each interaction gets its own session.
type Session struct {
	svc   *Service
	sel   Selection
	state State
	model ml.Classifier
	err   error
}

func (s *Session) State() State { return s.state }

func (s *Session) Err() error { return s.err }

// Open resolves the selected model. It can be called again after a failure.
func (s *Session) Open() error {
	path, err := s.sel.ModelPath()
	if err != nil {
		return s.fail(&Error{Kind: NotFound, Op: "resolve_model", Err: err})
	}
	model, err := ResolveModel(s.svc.cache, s.svc.Path(path))
	if err != nil {
		s.model = nil
		return s.fail(err)
	}
	s.model = model
	s.state = ModelReady
	s.err = nil
	return nil
}

// CanPredict reports whether the prediction trigger may be offered. A missing
// dataset hides the trigger until the session is opened again.
func (s *Session) CanPredict() bool {
	if s.model == nil {
		return false
	}
	return s.state != Failed || KindOf(s.err) != NotFound
}

// Preview loads the dataset for display. A LoadError on the model still allows
// a preview; a missing model artifact does not.
func (s *Session) Preview(rows int) (*dataset.Table, error) {
	if s.model == nil && !(s.state == Failed && KindOf(s.err) == LoadError) {
		return nil, ErrPreviewUnavailable
	}
	table, err := s.loadDataset()
	if err != nil {
		if s.model != nil {
			s.fail(err)
		}
		return nil, err
	}
	return table.Head(rows), nil
}

// Predict loads the dataset afresh and runs batch prediction over it.
func (s *Session) Predict(ctx context.Context) (*Result, error) {
	if !s.CanPredict() {
		return nil, ErrModelNotReady
	}

	start := time.Now()
	path, _ := s.sel.ModelPath()
	event := RunEvent{
		ID:        newRunID(),
		Variant:   s.sel.Variant.Name,
		Algorithm: s.sel.Algorithm,
		ModelPath: path,
		At:        start,
	}

	result, err := s.run(ctx)
	event.Duration = time.Since(start)
	if err != nil {
		event.Kind = KindOf(err)
		event.Status = event.Kind.String()
		event.Message = err.Error()
		s.svc.notify(event)
		return nil, s.fail(err)
	}

	event.Status = "ok"
	event.Rows = result.Table.NumRows()
	event.Counts = result.Counts
	s.svc.notify(event)

	s.state = PredictionShown
	s.err = nil
	return result, nil
}

func (s *Session) run(ctx context.Context) (*Result, error) {
	table, err := s.loadDataset()
	if err != nil {
		return nil, err
	}
	return PredictBatch(ctx, s.model, table, s.sel.Variant)
}

func (s *Session) loadDataset() (*dataset.Table, error) {
	v := s.sel.Variant
	path := s.svc.Path(v.DatasetPath)
	table, err := LoadDataset(path, v.LoadOptions())
	if err != nil {
		return nil, err
	}
	if stats := table.Cleaning(); stats.CellsCorrected > 0 {
		s.svc.logger.Debug("dataset cleaned",
			zap.String("variant", v.Name),
			zap.String("path", path),
			zap.Int64("cells_corrected", stats.CellsCorrected),
			zap.Any("corrections", stats.Corrections),
		)
	}
	return table, nil
}

func (s *Session) fail(err error) error {
	s.state = Failed
	s.err = err
	return err
}
