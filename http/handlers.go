package http

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"predictdemo/monitoring"
	"predictdemo/workflow"
)

// runPrediction 执行一次预测，测试中可替换
var runPrediction = func(ctx context.Context, s *workflow.Session) (*workflow.Result, error) {
	return s.Predict(ctx)
}

type handlers struct {
	catalogue *workflow.Catalogue
	service   *workflow.Service
	metrics   *monitoring.RunMetrics
	hub       *monitoring.Hub
	history   RunHistory
	logger    *zap.Logger
	pages     *template.Template
}

func newHandlers(deps Deps) (*handlers, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &handlers{
		catalogue: deps.Catalogue,
		service:   deps.Service,
		metrics:   deps.Metrics,
		hub:       deps.Hub,
		history:   deps.History,
		logger:    deps.Logger.Named("http"),
		pages:     pages,
	}, nil
}

func RegisterAPIHandlers(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/variants", h.handleVariants)
	mux.HandleFunc("POST /api/variants/{name}/predict", h.handlePredictAPI)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	mux.HandleFunc("GET /api/runs", h.handleRuns)
	if h.hub != nil {
		mux.HandleFunc("GET /api/ws/runs", h.hub.HandleWebSocket)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type variantInfo struct {
	Name             string   `json:"name"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Topic            string   `json:"topic"`
	Algorithms       []string `json:"algorithms"`
	LabelColumn      string   `json:"label_column"`
	PredictionColumn string   `json:"prediction_column"`
	Classes          []string `json:"classes"`
	ResultRows       int      `json:"result_rows"`
}

func (h *handlers) handleVariants(w http.ResponseWriter, r *http.Request) {
	variants := h.catalogue.All()
	infos := make([]variantInfo, 0, len(variants))
	for _, v := range variants {
		algs := make([]string, 0, len(v.ModelPaths))
		for _, alg := range v.Algorithms() {
			algs = append(algs, string(alg))
		}
		infos = append(infos, variantInfo{
			Name:             v.Name,
			Title:            v.Title,
			Description:      v.Description,
			Topic:            v.Topic,
			Algorithms:       algs,
			LabelColumn:      v.LabelColumn,
			PredictionColumn: v.PredictionColumn,
			Classes:          v.Classes,
			ResultRows:       v.ResultRows,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"variants": infos,
		"count":    len(infos),
	})
}

type predictResponse struct {
	Variant   string          `json:"variant"`
	Algorithm string          `json:"algorithm"`
	Columns   []string        `json:"columns"`
	Rows      [][]string      `json:"rows"`
	TotalRows int             `json:"total_rows"`
	Counts    workflow.Counts `json:"counts"`
}

type errorResponse struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Guidance string `json:"guidance,omitempty"`
}

func (h *handlers) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	sel, status, err := h.selection(r.PathValue("name"), r.URL.Query().Get("model"))
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	limit := sel.Variant.ResultRows
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = l
	}

	session := h.service.NewSession(sel)
	if err := session.Open(); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	result, err := runPrediction(r.Context(), session)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	view := newTableView(result.Table, limit)
	writeJSON(w, http.StatusOK, predictResponse{
		Variant:   sel.Variant.Name,
		Algorithm: string(sel.Algorithm),
		Columns:   view.Columns,
		Rows:      view.Rows,
		TotalRows: view.TotalRows,
		Counts:    result.Counts,
	})
}

func (h *handlers) writeWorkflowError(w http.ResponseWriter, err error) {
	kind := workflow.KindOf(err)
	writeJSON(w, statusForKind(kind), errorResponse{
		Kind:     kind.String(),
		Message:  err.Error(),
		Guidance: workflow.Guidance(kind),
	})
}

func statusForKind(kind workflow.Kind) int {
	switch kind {
	case workflow.NotFound:
		return http.StatusNotFound
	case workflow.LoadError, workflow.SchemaMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	collector := h.metrics.Collector()
	if r.URL.Query().Get("format") == "prometheus" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(collector.ExportPrometheus()))
		return
	}

	response := map[string]interface{}{
		"system": collector.GetSystemStats(),
		"runs":   h.metrics.Stats(),
	}
	if cache := h.service.Cache(); cache != nil {
		response["model_cache"] = map[string]interface{}{
			"entries": cache.Len(),
			"loads":   cache.Loads(),
		}
	}
	if h.hub != nil {
		response["websocket"] = h.hub.Stats()
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *handlers) handleRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run history is disabled"})
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read run history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  records,
		"count": len(records),
	})
}

var errUnknownVariant = errors.New("unknown variant")

// selection 解析变体和算法；未指定算法时使用变体的第一个算法
func (h *handlers) selection(name, model string) (workflow.Selection, int, error) {
	v, ok := h.catalogue.Get(name)
	if !ok {
		return workflow.Selection{}, http.StatusNotFound, errUnknownVariant
	}
	if model == "" {
		return workflow.Selection{Variant: v, Algorithm: v.Algorithms()[0]}, http.StatusOK, nil
	}
	alg, err := workflow.ParseAlgorithm(model)
	if err != nil {
		return workflow.Selection{}, http.StatusBadRequest, err
	}
	return workflow.Selection{Variant: v, Algorithm: alg}, http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
