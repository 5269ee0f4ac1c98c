package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestService(t *testing.T, dir string, observers ...Observer) *Service {
	t.Helper()
	cache, err := NewModelCache(4, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewService(cache, dir, nil, observers...)
}

func TestSessionHappyPath(t *testing.T) {
	dir := adultDataDir(t)
	var events []RunEvent
	svc := newTestService(t, dir, ObserverFunc(func(e RunEvent) { events = append(events, e) }))

	session := svc.NewSession(Selection{Variant: adultVariant(), Algorithm: RandomForest})
	if session.State() != Unloaded {
		t.Fatalf("expected Unloaded, got %s", session.State())
	}
	if err := session.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if session.State() != ModelReady || !session.CanPredict() {
		t.Fatalf("expected ModelReady, got %s", session.State())
	}

	preview, err := session.Preview(2)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.NumRows() != 2 {
		t.Fatalf("expected 2 preview rows, got %d", preview.NumRows())
	}

	result, err := session.Predict(context.Background())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if session.State() != PredictionShown {
		t.Fatalf("expected PredictionShown, got %s", session.State())
	}
	// age > 40 and executive is the only >50K path in the fixture tree.
	if result.Counts.Of(">50K") != 1 || result.Counts.Of("<=50K") != 3 {
		t.Fatalf("unexpected counts: %+v", result.Counts)
	}

	if len(events) != 1 {
		t.Fatalf("expected one run event, got %d", len(events))
	}
	if events[0].Failed() || events[0].Rows != 4 || events[0].ID == "" || events[0].Status != "ok" {
		t.Fatalf("unexpected event: %+v", events[0])
	}

	if _, err := session.Predict(context.Background()); err != nil {
		t.Fatalf("re-run: %v", err)
	}
	if session.State() != PredictionShown {
		t.Fatalf("expected PredictionShown after re-run, got %s", session.State())
	}
}

func TestSessionMissingModelNeverReadsDataset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "adult.csv", adultCSV)
	svc := newTestService(t, dir)

	session := svc.NewSession(Selection{Variant: adultVariant(), Algorithm: DecisionTree})
	err := session.Open()
	if KindOf(err) != NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if session.State() != Failed || session.CanPredict() {
		t.Fatalf("prediction must not be offered, state %s", session.State())
	}
	if _, err := session.Preview(5); !errors.Is(err, ErrPreviewUnavailable) {
		t.Fatalf("expected ErrPreviewUnavailable, got %v", err)
	}
	if _, err := session.Predict(context.Background()); !errors.Is(err, ErrModelNotReady) {
		t.Fatalf("expected ErrModelNotReady, got %v", err)
	}
}

func TestSessionLoadErrorStillPreviewsDataset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "adult.csv", adultCSV)
	writeFile(t, dir, "model_rf_adult_income.json", "not a model")
	svc := newTestService(t, dir)

	session := svc.NewSession(Selection{Variant: adultVariant(), Algorithm: RandomForest})
	if err := session.Open(); KindOf(err) != LoadError {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if session.CanPredict() {
		t.Fatal("prediction controls must be hidden after a LoadError")
	}
	preview, err := session.Preview(5)
	if err != nil {
		t.Fatalf("preview after LoadError: %v", err)
	}
	if preview.NumRows() != 4 {
		t.Fatalf("expected 4 rows, got %d", preview.NumRows())
	}
	if KindOf(session.Err()) != LoadError {
		t.Fatalf("preview must not clear the load error, got %v", session.Err())
	}
}

func TestSessionMissingDatasetHidesTrigger(t *testing.T) {
	dir := adultDataDir(t)
	if err := os.Remove(filepath.Join(dir, "adult.csv")); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, dir)

	session := svc.NewSession(Selection{Variant: adultVariant(), Algorithm: RandomForest})
	if err := session.Open(); err != nil {
		t.Fatal(err)
	}
	if _, err := session.Preview(5); KindOf(err) != NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if session.CanPredict() {
		t.Fatal("trigger must be hidden when the dataset is missing")
	}
}

func TestSessionSchemaMismatchAllowsRetry(t *testing.T) {
	dir := adultDataDir(t)
	writeFile(t, dir, "adult.csv", "age,income\n39,<=50K\n")
	var events []RunEvent
	svc := newTestService(t, dir, ObserverFunc(func(e RunEvent) { events = append(events, e) }))

	session := svc.NewSession(Selection{Variant: adultVariant(), Algorithm: DecisionTree})
	if err := session.Open(); err != nil {
		t.Fatal(err)
	}
	if _, err := session.Predict(context.Background()); KindOf(err) != SchemaMismatch {
		t.Fatalf("expected SchemaMismatch, got %v", err)
	}
	if session.State() != Failed || !session.CanPredict() {
		t.Fatalf("expected a retryable failure, state %s", session.State())
	}
	if len(events) != 1 || events[0].Kind != SchemaMismatch || events[0].Status != "schema_mismatch" {
		t.Fatalf("unexpected events: %+v", events)
	}

	writeFile(t, dir, "adult.csv", adultCSV)
	if _, err := session.Predict(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if session.State() != PredictionShown {
		t.Fatalf("expected PredictionShown, got %s", session.State())
	}
}

func TestSessionPredictBeforeOpen(t *testing.T) {
	svc := newTestService(t, t.TempDir())
	session := svc.NewSession(Selection{Variant: adultVariant(), Algorithm: RandomForest})
	if _, err := session.Predict(context.Background()); !errors.Is(err, ErrModelNotReady) {
		t.Fatalf("expected ErrModelNotReady, got %v", err)
	}
	if session.State() != Unloaded {
		t.Fatalf("state must not change, got %s", session.State())
	}
}

func TestSessionUnknownAlgorithm(t *testing.T) {
	v := adultVariant()
	delete(v.ModelPaths, DecisionTree)
	svc := newTestService(t, adultDataDir(t))

	session := svc.NewSession(Selection{Variant: v, Algorithm: DecisionTree})
	if err := session.Open(); KindOf(err) != NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestServicePath(t *testing.T) {
	svc := NewService(nil, "/srv/data", nil)
	if got := svc.Path("adult.csv"); got != filepath.Join("/srv/data", "adult.csv") {
		t.Fatalf("unexpected path %s", got)
	}
	if got := svc.Path("/abs/adult.csv"); got != "/abs/adult.csv" {
		t.Fatalf("absolute paths must be kept, got %s", got)
	}
	if got := NewService(nil, "", nil).Path("adult.csv"); got != "adult.csv" {
		t.Fatalf("empty data dir must keep relative path, got %s", got)
	}
}

func TestSessionLogsDatasetCleaning(t *testing.T) {
	dir := adultDataDir(t)
	cache, err := NewModelCache(4, nil)
	if err != nil {
		t.Fatal(err)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewService(cache, dir, zap.New(core))

	session := svc.NewSession(Selection{Variant: adultVariant(), Algorithm: DecisionTree})
	if err := session.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := session.Predict(context.Background()); err != nil {
		t.Fatalf("predict: %v", err)
	}

	entries := logs.FilterMessage("dataset cleaned").All()
	if len(entries) != 1 {
		t.Fatalf("expected one cleaning entry, got %d", len(entries))
	}
	// occupation and income are padded in every row of the fixture
	if got := entries[0].ContextMap()["cells_corrected"]; got != int64(8) {
		t.Fatalf("unexpected cells_corrected: %v", got)
	}
}
