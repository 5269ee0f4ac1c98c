package workflow

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunEvent describes one completed prediction attempt.
type RunEvent struct {
	ID        string        `json:"id"`
	Variant   string        `json:"variant"`
	Algorithm Algorithm     `json:"algorithm"`
	ModelPath string        `json:"model_path"`
	Rows      int           `json:"rows"`
	Counts    Counts        `json:"counts"`
	Kind      Kind          `json:"-"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
	At        time.Time     `json:"at"`
}

func (e RunEvent) Failed() bool { return e.Kind != KindNone }

// Observer is notified after every prediction attempt.
type Observer interface {
	ObserveRun(RunEvent)
}

type ObserverFunc func(RunEvent)

func (f ObserverFunc) ObserveRun(e RunEvent) { f(e) }

// Service resolves variant paths against the data directory and owns the
// process-wide model cache.
type Service struct {
	cache   *ModelCache
	dataDir string
	logger  *zap.Logger

	mu        sync.RWMutex
	observers []Observer
}

func NewService(cache *ModelCache, dataDir string, logger *zap.Logger, observers ...Observer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cache:     cache,
		dataDir:   dataDir,
		logger:    logger,
		observers: observers,
	}
}

func (s *Service) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Service) Cache() *ModelCache { return s.cache }

// Path resolves p against the data directory unless it is absolute.
func (s *Service) Path(p string) string {
	if filepath.IsAbs(p) || s.dataDir == "" {
		return p
	}
	return filepath.Join(s.dataDir, p)
}

func (s *Service) NewSession(sel Selection) *Session {
	return &Session{svc: s, sel: sel, state: Unloaded}
}

func (s *Service) notify(event RunEvent) {
	fields := []zap.Field{
		zap.String("run_id", event.ID),
		zap.String("variant", event.Variant),
		zap.String("algorithm", string(event.Algorithm)),
		zap.Int("rows", event.Rows),
		zap.Duration("duration", event.Duration),
	}
	if event.Failed() {
		s.logger.Warn("prediction failed", append(fields,
			zap.String("kind", event.Kind.String()), zap.String("error", event.Message))...)
	} else {
		s.logger.Info("prediction completed", append(fields, zap.Any("counts", event.Counts.Classes))...)
	}

	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()
	for _, o := range observers {
		o.ObserveRun(event)
	}
}

func newRunID() string {
	return uuid.NewString()
}
