package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"predictdemo/dataset"
	"predictdemo/workflow"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

func parsePages() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

func RegisterPages(mux *http.ServeMux, h *handlers) {
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /variants/{name}", h.handleVariantPage)
	mux.HandleFunc("POST /variants/{name}/predict", h.handlePredictPage)
}

// banner 页面提示条
type banner struct {
	Level    string
	Message  string
	Guidance string
}

type tableView struct {
	Columns   []string
	Rows      [][]string
	TotalRows int
	Truncated bool
}

// newTableView 取前limit行，limit为0时取全部
func newTableView(t *dataset.Table, limit int) tableView {
	n := t.NumRows()
	if limit > 0 && limit < n {
		n = limit
	}
	view := tableView{
		Columns:   t.Columns(),
		Rows:      make([][]string, n),
		TotalRows: t.NumRows(),
		Truncated: n < t.NumRows(),
	}
	for i := 0; i < n; i++ {
		view.Rows[i] = t.Row(i)
	}
	return view
}

type algorithmOption struct {
	Value    workflow.Algorithm
	Label    string
	Selected bool
}

type resultView struct {
	Table            tableView
	Counts           []workflow.LabelCount
	Other            int
	PredictionColumn string
}

type indexPage struct {
	Title    string
	Nav      []workflow.Variant
	Variants []workflow.Variant
}

type variantPage struct {
	Title      string
	Nav        []workflow.Variant
	Variant    workflow.Variant
	Algorithm  workflow.Algorithm
	Options    []algorithmOption
	Banners    []banner
	Preview    *tableView
	CanPredict bool
	Result     *resultView
}

func (h *handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	variants := h.catalogue.All()
	h.render(w, "index.html", indexPage{
		Title:    "Prediction demos",
		Nav:      variants,
		Variants: variants,
	})
}

func (h *handlers) handleVariantPage(w http.ResponseWriter, r *http.Request) {
	page, status := h.variantPage(r, false)
	if page == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.render(w, "variant.html", page)
}

func (h *handlers) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	page, status := h.variantPage(r, true)
	if page == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.render(w, "variant.html", page)
}

// variantPage 打开模型、预览数据集，predict为true时执行预测
func (h *handlers) variantPage(r *http.Request, predict bool) (*variantPage, int) {
	model := r.URL.Query().Get("model")
	if predict {
		model = r.FormValue("model")
	}
	sel, status, err := h.selection(r.PathValue("name"), model)
	if err != nil {
		return nil, status
	}

	page := &variantPage{
		Title:     sel.Variant.Title,
		Nav:       h.catalogue.All(),
		Variant:   sel.Variant,
		Algorithm: sel.Algorithm,
	}
	for _, alg := range sel.Variant.Algorithms() {
		page.Options = append(page.Options, algorithmOption{
			Value:    alg,
			Label:    alg.Label(),
			Selected: alg == sel.Algorithm,
		})
	}

	session := h.service.NewSession(sel)
	if err := session.Open(); err != nil {
		page.Banners = append(page.Banners, errorBanner(err))
	} else {
		page.Banners = append(page.Banners, banner{Level: "success", Message: sel.Algorithm.Label() + " model loaded."})
	}

	if preview, err := session.Preview(sel.Variant.PreviewRows); err == nil {
		view := newTableView(preview, 0)
		page.Preview = &view
	} else if !errors.Is(err, workflow.ErrPreviewUnavailable) {
		page.Banners = append(page.Banners, errorBanner(err))
	}
	page.CanPredict = session.CanPredict()

	if predict && page.CanPredict {
		result, err := runPrediction(r.Context(), session)
		if err != nil {
			page.Banners = append(page.Banners, errorBanner(err))
		} else {
			page.Banners = append(page.Banners, banner{Level: "success", Message: "Prediction complete."})
			page.Result = &resultView{
				Table:            newTableView(result.Table, sel.Variant.ResultRows),
				Counts:           result.Counts.Classes,
				Other:            result.Counts.Other,
				PredictionColumn: sel.Variant.PredictionColumn,
			}
		}
		page.CanPredict = session.CanPredict()
	}
	return page, http.StatusOK
}

func errorBanner(err error) banner {
	kind := workflow.KindOf(err)
	return banner{
		Level:    "error",
		Message:  err.Error(),
		Guidance: workflow.Guidance(kind),
	}
}

func (h *handlers) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
