package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anime-shed/gridbot-inspector-go/internal/analyzer"
	"github.com/anime-shed/gridbot-inspector-go/internal/config"
	"github.com/anime-shed/gridbot-inspector-go/internal/observer"
	"github.com/anime-shed/gridbot-inspector-go/internal/service"
	"github.com/anime-shed/gridbot-inspector-go/pkg/models"
)

const screenshotText = "BTCUSDT Long 5x Total Investment 1000 P&L 20.00 (2.00%) Price Range 90000 - 110000 Grids 40 (Geometric) Active - 2D 0h 0m"

type fakeRecognizer struct{}

func (fakeRecognizer) Recognize(context.Context, *image.Gray) (string, error) {
	return screenshotText, nil
}

func (fakeRecognizer) Name() string { return "fake" }

func init() {
	gin.SetMode(gin.TestMode)
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, *observer.MetricsObserver) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{
			RequestTimeout:     5 * time.Second,
			MaxRequestBodySize: 1 << 20,
			MaxBatchSize:       3,
		}
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)

	pool := analyzer.NewWorkerPool(2)
	pool.Start()
	t.Cleanup(pool.Close)

	svc, err := service.NewGridAnalysisService(service.Dependencies{
		Recognizer:   fakeRecognizer{},
		Pool:         pool,
		Events:       events,
		MaxBatchSize: cfg.MaxBatchSize,
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	return NewHandler(Options{
		Service:    svc,
		Metrics:    metrics,
		OCRVersion: "5.3.0",
		Config:     cfg,
	}), metrics
}

func multipartBody(t *testing.T, field string, files map[string][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write(data)
	}
	for k, v := range values {
		w.WriteField(k, v)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decode[models.HealthResponse](t, w)
	if resp.Status != "available" || resp.Version != Version || resp.OCRVersion != "5.3.0" {
		t.Errorf("Unexpected health response %+v", resp)
	}
}

func TestHelp(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/help", nil))

	resp := decode[models.HelpResponse](t, w)
	if !strings.Contains(resp.Message, "Status and Parameters") {
		t.Errorf("Unexpected help message %q", resp.Message)
	}
}

func TestAnalyzeUpload(t *testing.T) {
	router, metrics := newTestRouter(t, nil)

	body, contentType := multipartBody(t, "image", map[string][]byte{"bot.png": testImage(t)},
		map[string]string{"expected_text": screenshotText})
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[models.AnalysisResponse](t, w)
	if resp.Status != "analyzed" || resp.Symbol != "BTCUSDT" {
		t.Errorf("Unexpected response %+v", resp)
	}
	if resp.Fields["grid_type"] != "geometric" || resp.Fields["leverage"] != float64(5) {
		t.Errorf("Unexpected fields %v", resp.Fields)
	}
	if resp.OCRAccuracy == nil || resp.OCRAccuracy.WordErrorRate != 0 {
		t.Errorf("Expected perfect accuracy, got %+v", resp.OCRAccuracy)
	}
	if resp.Projection == nil || resp.Projection.DailyUSDT != 10 {
		t.Errorf("Expected 10 USDT/day projection, got %+v", resp.Projection)
	}

	if got := metrics.GetMetrics().SuccessfulAnalyses; got != 1 {
		t.Errorf("Expected 1 successful analysis, got %d", got)
	}
}

func TestAnalyzeUpload_Errors(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name     string
		field    string
		data     []byte
		wantCode int
	}{
		{"missing field", "file", testImage(t), http.StatusBadRequest},
		{"not an image", "image", []byte("plain text"), http.StatusUnprocessableEntity},
		{"empty file", "image", []byte{}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.field, map[string][]byte{"x.png": tt.data}, nil)
			req := httptest.NewRequest(http.MethodPost, "/analyze", body)
			req.Header.Set("Content-Type", contentType)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			resp := decode[models.ErrorResponse](t, w)
			if resp.Error != http.StatusText(tt.wantCode) || resp.Message == "" {
				t.Errorf("Unexpected error body %+v", resp)
			}
		})
	}
}

func TestAnalyzeUpload_BodyTooLarge(t *testing.T) {
	router, _ := newTestRouter(t, &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 64,
		MaxBatchSize:       1,
	})

	body, contentType := multipartBody(t, "image", map[string][]byte{"big.png": bytes.Repeat([]byte{1}, 4096)}, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code == http.StatusOK {
		t.Fatal("Expected oversized upload to be rejected")
	}
}

func TestAnalyzeRemote_Validation(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed json", `{"url":`, http.StatusBadRequest},
		{"no source", `{}`, http.StatusBadRequest},
		{"bad scheme", `{"url":"ftp://example.com/a.png"}`, http.StatusBadRequest},
		{"blob not configured", `{"blob_url":"https://acct.blob.core.windows.net/c/a.png"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/analyze/url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestAnalyzeBatch(t *testing.T) {
	router, metrics := newTestRouter(t, nil)

	body, contentType := multipartBody(t, "images[]", map[string][]byte{
		"a.png": testImage(t),
		"b.png": testImage(t),
		"c.txt": []byte("nope"),
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze/batch", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[models.BatchAnalysisResponse](t, w)
	if resp.Total != 3 || resp.Succeeded != 2 || resp.Failed != 1 {
		t.Errorf("Unexpected batch totals %+v", resp)
	}

	m := metrics.GetMetrics()
	if m.TotalAnalyses != 3 || m.FailedAnalyses != 1 {
		t.Errorf("Unexpected metrics %+v", m)
	}
}

func TestAnalyzeBatch_TooMany(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	files := map[string][]byte{}
	for _, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
		files[name] = testImage(t)
	}
	body, contentType := multipartBody(t, "images[]", files, nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze/batch", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestMetrics(t *testing.T) {
	router, metrics := newTestRouter(t, nil)
	metrics.OnEvent(context.Background(), observer.AnalysisEvent{EventType: observer.AnalysisStarted})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := decode[observer.Metrics](t, w)
	if resp.TotalAnalyses != 1 {
		t.Errorf("Expected 1 analysis, got %+v", resp)
	}
}
