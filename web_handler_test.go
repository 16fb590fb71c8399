package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pivolan/sales_analyzer/config"
	"github.com/pivolan/sales_analyzer/logger"
	"github.com/pivolan/sales_analyzer/session"
)

const salesCSV = `Data,Produto,Categoria,Valor
2024-03-01,Camiseta,Vestuário,50.00
2024-03-02,Calça,Vestuário,80.00
2024-03-05,Notebook,Eletrônicos,3500.00
`

func testConfig() *config.Config {
	return &config.Config{
		HTTPAddr:          ":0",
		PublicURL:         "http://dash.test",
		MaxUploadBytes:    1 << 20,
		HistogramBins:     20,
		DefaultCategories: 3,
		SessionTTL:        time.Hour,
		LogLevel:          "error",
		Currency:          "R$",
	}
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, slog.LevelError)
}

type recordingNotifier struct {
	done chan string
}

func (n *recordingNotifier) UploadCompleted(_ context.Context, link string, sess session.Session) {
	n.done <- link + ":" + sess.FileName
}

func newTestWebServer(t *testing.T, notifier uploadNotifier) (*webServer, http.Handler) {
	t.Helper()
	ws, err := newWebServer(testConfig(), session.NewStore(time.Hour), testLogger(), notifier)
	require.NoError(t, err)
	return ws, ws.routes()
}

func uploadRequest(t *testing.T, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// upload posts salesCSV and returns the session cookie.
func upload(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "vendas.csv", salesCSV, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func get(h http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexPage(t *testing.T) {
	_, h := newTestWebServer(t, nil)
	rec := get(h, "/?link=abc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="file"`)
	assert.Contains(t, rec.Body.String(), "abc")
}

func TestUploadAndDashboard(t *testing.T) {
	_, h := newTestWebServer(t, nil)
	cookie := upload(t, h)

	rec := get(h, "/dashboard", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "R$ 3,630.00")
	assert.Contains(t, body, "Notebook")
	assert.Contains(t, body, "/dashboard/chart/products.png")

	rec = get(h, "/dashboard?view=trends", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "/dashboard/chart/timeseries.png")
	assert.Contains(t, body, "/dashboard/chart/seasonality.png")
	assert.Contains(t, body, "March")
}

func TestDashboardWithoutSession(t *testing.T) {
	_, h := newTestWebServer(t, nil)
	rec := get(h, "/dashboard", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = get(h, "/dashboard/data", &http.Cookie{Name: sessionCookie, Value: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardRejectsBadMapping(t *testing.T) {
	ws, h := newTestWebServer(t, nil)
	cookie := upload(t, h)

	rec := get(h, "/dashboard?value=Produto", cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not numeric")

	rec = get(h, "/dashboard?from=2024-03-10&to=2024-03-01", cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = get(h, "/dashboard?view=forecast", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(h, "/dashboard?from=01/03", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a rejected mapping does not replace the stored one
	sess, err := ws.store.Get(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "Valor", sess.Schema.ValueField)
}

func TestDashboardData(t *testing.T) {
	ws, h := newTestWebServer(t, nil)
	cookie := upload(t, h)

	rec := get(h, "/dashboard/data?view=overview&from=2024-03-01&to=2024-03-02", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res struct {
		View     string `json:"view"`
		Rows     int    `json:"rows"`
		Overview struct {
			Total        string `json:"total"`
			Transactions int    `json:"transactions"`
		} `json:"overview"`
		Products []struct {
			Product string  `json:"product"`
			Sum     float64 `json:"sum"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "overview", res.View)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, "130", res.Overview.Total)
	assert.Equal(t, 2, res.Overview.Transactions)
	require.Len(t, res.Products, 2)
	assert.Equal(t, "Calça", res.Products[0].Product)

	// a changed role is kept for the next request of the session
	rec = get(h, "/dashboard/data?product=Categoria", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	sess, err := ws.store.Get(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "Categoria", sess.Schema.ProductField)
}

func TestChartPNG(t *testing.T) {
	_, h := newTestWebServer(t, nil)
	cookie := upload(t, h)

	for _, name := range []string{"products", "histogram", "scatter", "timeseries", "categories", "seasonality"} {
		t.Run(name, func(t *testing.T) {
			rec := get(h, "/dashboard/chart/"+name+".png", cookie)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
		})
	}

	assert.Equal(t, http.StatusNotFound, get(h, "/dashboard/chart/pie.png", cookie).Code)
	assert.Equal(t, http.StatusNotFound,
		get(h, "/dashboard/chart/products.png?from=2025-01-01&to=2025-01-31", cookie).Code)
}

func TestChartsPage(t *testing.T) {
	_, h := newTestWebServer(t, nil)
	cookie := upload(t, h)

	rec := get(h, "/dashboard/charts?view=trends", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")
}

func TestExportZip(t *testing.T) {
	_, h := newTestWebServer(t, nil)
	cookie := upload(t, h)

	rec := get(h, "/dashboard/export.zip", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"categorias_por_data.csv",
		"histograma.csv",
		"produtos.csv",
		"sazonalidade.csv",
		"vendas_por_data.csv",
	}, names)
}

func TestUploadErrors(t *testing.T) {
	_, h := newTestWebServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "vendas.pdf", "%PDF", nil))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "vendas.csv", "", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "vendas.csv", strings.Repeat("a,1\n", 1<<19), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadNotifiesLink(t *testing.T) {
	n := &recordingNotifier{done: make(chan string, 1)}
	_, h := newTestWebServer(t, n)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "vendas.csv", salesCSV, map[string]string{"link": "abc"}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	select {
	case got := <-n.done:
		assert.Equal(t, "abc:vendas.csv", got)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier not called")
	}
}

func TestHealth(t *testing.T) {
	_, h := newTestWebServer(t, nil)
	upload(t, h)

	rec := get(h, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["sessions"])
}
