package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pivolan/sales_analyzer/analytics"
	"github.com/pivolan/sales_analyzer/config"
	"github.com/pivolan/sales_analyzer/domain/models"
	"github.com/pivolan/sales_analyzer/logger"
	"github.com/pivolan/sales_analyzer/plot"
	"github.com/pivolan/sales_analyzer/session"
	"github.com/pivolan/sales_analyzer/table"
	"github.com/pivolan/sales_analyzer/web"
)

const sessionCookie = "session"

// uploadNotifier is told about files uploaded through a link handed out in a chat.
type uploadNotifier interface {
	UploadCompleted(ctx context.Context, link string, sess session.Session)
}

type webServer struct {
	cfg      *config.Config
	store    *session.Store
	log      *logger.Logger
	pages    *template.Template
	notifier uploadNotifier
	started  time.Time
}

func newWebServer(cfg *config.Config, store *session.Store, log *logger.Logger, notifier uploadNotifier) (*webServer, error) {
	pages, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &webServer{
		cfg:      cfg,
		store:    store,
		log:      log.WithComponent("http"),
		pages:    pages,
		notifier: notifier,
		started:  time.Now(),
	}, nil
}

func (s *webServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/healthz", s.handleHealth)
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", s.handleDashboard)
		r.Get("/charts", s.handleCharts)
		r.Get("/data", s.handleData)
		r.Get("/chart/{file}", s.handleChartPNG)
		r.Get("/export.zip", s.handleExport)
	})
	return r
}

type uploadPage struct {
	Link   string
	Accept string
	MaxMB  int64
	Error  string
}

func (s *webServer) renderUpload(w http.ResponseWriter, r *http.Request, status int, link, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := s.pages.ExecuteTemplate(w, "upload.html", uploadPage{
		Link:   link,
		Accept: strings.Join(table.SupportedExtensions, ","),
		MaxMB:  s.cfg.MaxUploadBytes >> 20,
		Error:  errMsg,
	})
	if err != nil {
		logger.FromContext(r.Context()).Error("render upload page", "error", err)
	}
}

func (s *webServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderUpload(w, r, http.StatusOK, r.URL.Query().Get("link"), "")
}

func (s *webServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.renderUpload(w, r, http.StatusRequestEntityTooLarge, "",
				fmt.Sprintf("Arquivo maior que %d MB", s.cfg.MaxUploadBytes>>20))
			return
		}
		s.renderUpload(w, r, http.StatusBadRequest, "", "Nenhum arquivo enviado")
		return
	}
	defer file.Close()
	link := r.FormValue("link")

	t, err := table.Load(header.Filename, file)
	if err != nil {
		log.Warn("upload rejected", "file", header.Filename, "error", err)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, table.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		s.renderUpload(w, r, status, link, "Não foi possível ler o arquivo: "+err.Error())
		return
	}

	// an incomplete suggestion still opens the dashboard, where the mapping error is shown
	schema, err := table.SuggestSchema(t)
	if err != nil {
		log.Info("no complete column suggestion", "file", header.Filename, "error", err)
	}
	sess := s.store.Create(header.Filename, t, schema)
	log.Info("table uploaded",
		"session", sess.ID,
		"file", header.Filename,
		"rows", len(t.Rows),
		"columns", len(t.Columns))

	if link != "" && s.notifier != nil {
		go s.notifier.UploadCompleted(logger.WithContext(context.Background(), s.log), link, *sess)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *webServer) currentSession(r *http.Request) (session.Session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return session.Session{}, session.ErrNotFound
	}
	return s.store.Get(c.Value)
}

// parseDashboardRequest reads the sidebar controls. Roles that are not in the
// query fall back to the last schema of the session.
func parseDashboardRequest(q url.Values, sess session.Session, cfg *config.Config) (analytics.Request, error) {
	req := analytics.Request{
		Schema:            sess.Schema,
		View:              models.View(q.Get("view")),
		XField:            q.Get("x"),
		YField:            q.Get("y"),
		Bins:              cfg.HistogramBins,
		DefaultCategories: cfg.DefaultCategories,
	}
	if v := q.Get("date"); v != "" {
		req.Schema.DateField = v
	}
	if v := q.Get("value"); v != "" {
		req.Schema.ValueField = v
	}
	if v := q.Get("product"); v != "" {
		req.Schema.ProductField = v
	}
	if v := q.Get("category"); v != "" {
		req.Schema.CategoryField = v
	}
	if q.Get("categories_set") != "" {
		req.Categories = append([]string{}, q["categories"]...)
	}

	var err error
	if req.From, err = parseDateParam(q.Get("from")); err != nil {
		return req, err
	}
	if req.To, err = parseDateParam(q.Get("to")); err != nil {
		return req, err
	}
	return req, nil
}

func parseDateParam(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(analytics.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("data inválida %q: use AAAA-MM-DD", v)
	}
	return &d, nil
}

// runQuery executes the pipeline for the request of r. status is the HTTP
// status to answer with when err is not nil.
func (s *webServer) runQuery(r *http.Request, sess session.Session, view models.View) (res *analytics.Result, req analytics.Request, status int, err error) {
	req, err = parseDashboardRequest(r.URL.Query(), sess, s.cfg)
	if err != nil {
		return nil, req, http.StatusBadRequest, err
	}
	if view != "" {
		req.View = view
	}
	res, err = analytics.Run(sess.Table, req)
	switch {
	case err == nil:
		if req.Schema != sess.Schema {
			_ = s.store.SetSchema(sess.ID, req.Schema)
		}
		return res, req, http.StatusOK, nil
	case analytics.IsFatal(err):
		return nil, req, http.StatusUnprocessableEntity, err
	case errors.Is(err, analytics.ErrUnknownView):
		return nil, req, http.StatusBadRequest, err
	default:
		return nil, req, http.StatusInternalServerError, err
	}
}

type viewOption struct {
	Value   models.View
	Title   string
	Checked bool
}

type categoryOption struct {
	Name     string
	Selected bool
}

type dashboardPage struct {
	Title           string
	FileName        string
	View            models.View
	Views           []viewOption
	Columns         []string
	NumericColumns  []string
	CategoryChoices []string
	Schema          models.Schema
	From, To        string
	Min, Max        string
	XField, YField  string
	Categories      []categoryOption
	Tables          string
	Charts          []string
	Query           template.URL
	Error           string
}

func chartsFor(res *analytics.Result) []string {
	var charts []string
	switch res.View {
	case models.ViewOverview:
		if len(res.Products) > 0 {
			charts = append(charts, "products")
		}
	case models.ViewStatistics:
		if len(res.Histogram) > 0 {
			charts = append(charts, "histogram")
		}
	case models.ViewExploration:
		if len(res.Points) > 0 {
			charts = append(charts, "scatter")
		}
	case models.ViewTrends:
		if len(res.Series) > 0 {
			charts = append(charts, "timeseries")
		}
		if len(res.CategorySeries) > 0 {
			charts = append(charts, "categories")
		}
		if len(res.Seasonality) > 0 {
			charts = append(charts, "seasonality")
		}
	}
	return charts
}

func (s *webServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	res, req, status, runErr := s.runQuery(r, sess, "")

	view := req.View
	if view == "" {
		view = models.ViewOverview
	}
	page := dashboardPage{
		Title:           view.Title(),
		FileName:        sess.FileName,
		View:            view,
		Columns:         sess.Table.ColumnNames(),
		NumericColumns:  table.NumericColumns(sess.Table),
		CategoryChoices: table.CategoryChoices(sess.Table, req.Schema.DateField, req.Schema.ValueField),
		Schema:          req.Schema,
		XField:          req.XField,
		YField:          req.YField,
		Query:           template.URL(r.URL.Query().Encode()),
	}
	for _, v := range models.Views {
		page.Views = append(page.Views, viewOption{Value: v, Title: v.Title(), Checked: v == view})
	}
	if req.From != nil {
		page.From = req.From.Format(analytics.DateLayout)
	}
	if req.To != nil {
		page.To = req.To.Format(analytics.DateLayout)
	}

	if runErr != nil {
		if status == http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("dashboard pipeline failed", "session", sess.ID, "error", runErr)
		}
		page.Error = runErr.Error()
	} else {
		page.From = res.Range.From.Format(analytics.DateLayout)
		page.To = res.Range.To.Format(analytics.DateLayout)
		page.Min = res.FullRange.From.Format(analytics.DateLayout)
		page.Max = res.FullRange.To.Format(analytics.DateLayout)
		page.XField, page.YField = res.XField, res.YField
		selected := make(map[string]bool, len(res.SelectedCategories))
		for _, c := range res.SelectedCategories {
			selected[c] = true
		}
		for _, c := range res.Categories {
			page.Categories = append(page.Categories, categoryOption{Name: c, Selected: selected[c]})
		}
		page.Tables = FormatResult(res, s.cfg.Currency)
		page.Charts = chartsFor(res)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, "dashboard.html", page); err != nil {
		logger.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *webServer) handleData(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	res, _, status, err := s.runQuery(r, sess, "")
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *webServer) handleCharts(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	res, _, status, err := s.runQuery(r, sess, "")
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := plot.BuildPage(res, s.cfg.Currency).Render(w); err != nil {
		logger.FromContext(r.Context()).Error("render charts", "error", err)
	}
}

var chartViews = map[string]models.View{
	"products":    models.ViewOverview,
	"histogram":   models.ViewStatistics,
	"scatter":     models.ViewExploration,
	"timeseries":  models.ViewTrends,
	"categories":  models.ViewTrends,
	"seasonality": models.ViewTrends,
}

// drawChart renders one PNG of res by name.
func drawChart(name string, res *analytics.Result, currency string) ([]byte, error) {
	nameY := fmt.Sprintf("Vendas (%s)", currency)
	switch name {
	case "products":
		return plot.DrawPlotBar(plot.NewProductData(res.Products, nameY, "Vendas por Produto"))
	case "histogram":
		return plot.DrawPlotBar(plot.NewHistogramData(res.Histogram, "Distribuição de "+res.Schema.ValueField))
	case "scatter":
		return plot.DrawScatter(res.Points, res.XField, res.YField)
	case "timeseries":
		return plot.DrawTimeSeries(plot.NewDateData(res.Series, nameY, "Vendas ao Longo do Tempo", "day"))
	case "categories":
		return plot.DrawCategorySeries(res.CategorySeries, nameY, "Vendas por Categoria")
	case "seasonality":
		return plot.DrawSeasonality(res.Seasonality, "Sazonalidade Mensal")
	}
	return nil, fmt.Errorf("unknown chart %q", name)
}

func (s *webServer) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(chi.URLParam(r, "file"), ".png")
	view, ok := chartViews[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	sess, err := s.currentSession(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	res, _, status, err := s.runQuery(r, sess, view)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}
	b, err := drawChart(name, res, s.cfg.Currency)
	if errors.Is(err, plot.ErrNoData) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("draw chart", "chart", name, "error", err)
		http.Error(w, "chart error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
}

func (s *webServer) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	req, err := parseDashboardRequest(r.URL.Query(), sess, s.cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	files, err := ExportCSVs(sess.Table, req)
	if err != nil {
		status := http.StatusInternalServerError
		if analytics.IsFatal(err) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	b, err := ZipArchive(files)
	if err != nil {
		logger.FromContext(r.Context()).Error("export archive", "error", err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="vendas_`+time.Now().Format("20060102-150405")+`.zip"`)
	_, _ = w.Write(b)
}

func (s *webServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
		"sessions":  s.store.Len(),
	})
}
