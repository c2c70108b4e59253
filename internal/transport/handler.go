package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/gridbot-inspector-go/internal/config"
	apperrors "github.com/anime-shed/gridbot-inspector-go/internal/errors"
	"github.com/anime-shed/gridbot-inspector-go/internal/logger"
	"github.com/anime-shed/gridbot-inspector-go/internal/observer"
	"github.com/anime-shed/gridbot-inspector-go/internal/service"
	"github.com/anime-shed/gridbot-inspector-go/pkg/models"
)

const Version = "1.0.0"

const (
	imageFormField    = "image"
	batchFormField    = "images[]"
	expectedFormField = "expected_text"
)

// Options carries the read-only collaborators of the HTTP layer
type Options struct {
	Service    service.GridAnalysisService
	Metrics    *observer.MetricsObserver
	OCRVersion string
	Config     *config.Config
}

func NewHandler(opts Options) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(opts.Config.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck(opts.OCRVersion))
	r.GET("/help", help)
	r.GET("/metrics", metrics(opts.Metrics))
	r.POST("/analyze", analyzeUpload(opts.Service, opts.Config))
	r.POST("/analyze/url", analyzeRemote(opts.Service, opts.Config))
	r.POST("/analyze/batch", analyzeBatch(opts.Service, opts.Config))

	return r
}

func analyzeUpload(svc service.GridAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fh, err := c.FormFile(imageFormField)
		if err != nil {
			respondError(c, apperrors.NewValidationError("multipart field \"image\" is required", err))
			return
		}
		data, err := readFormFile(fh)
		if err != nil {
			respondError(c, err)
			return
		}

		resp, err := svc.AnalyzeImage(ctx, data, c.PostForm(expectedFormField))
		if err != nil {
			respondError(c, err)
			return
		}

		logCompletion(c, resp)
		c.JSON(http.StatusOK, resp)
	}
}

func analyzeRemote(svc service.GridAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.RemoteAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("invalid request format", err))
			return
		}

		resp, err := svc.AnalyzeRemote(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}

		logCompletion(c, resp)
		c.JSON(http.StatusOK, resp)
	}
}

func analyzeBatch(svc service.GridAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		form, err := c.MultipartForm()
		if err != nil {
			respondError(c, apperrors.NewValidationError("multipart form is required", err))
			return
		}
		files := form.File[batchFormField]
		if len(files) == 0 {
			respondError(c, apperrors.NewValidationError("multipart field \"images[]\" is required", nil))
			return
		}
		if len(files) > cfg.MaxBatchSize {
			respondError(c, apperrors.NewValidationError(
				fmt.Sprintf("batch holds %d images, limit is %d", len(files), cfg.MaxBatchSize), nil))
			return
		}

		items := make([]models.BatchItem, 0, len(files))
		for _, fh := range files {
			data, err := readFormFile(fh)
			if err != nil {
				respondError(c, err)
				return
			}
			items = append(items, models.BatchItem{Name: fh.Filename, Data: data})
		}

		resp, err := svc.AnalyzeBatch(ctx, items)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"path":      c.Request.URL.Path,
			"total":     resp.Total,
			"succeeded": resp.Succeeded,
			"failed":    resp.Failed,
		}).Info("Batch analysis completed")
		c.JSON(http.StatusOK, resp)
	}
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("could not open uploaded file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperrors.NewValidationError("could not read uploaded file", err)
	}
	return data, nil
}

func logCompletion(c *gin.Context, resp *models.AnalysisResponse) {
	logger.WithFields(logrus.Fields{
		"path":                c.Request.URL.Path,
		"symbol":              resp.Symbol,
		"fields":              len(resp.Fields) - 1,
		"weak_recognition":    len(resp.Guidance) > 0,
		"processing_time_sec": resp.ProcessingTimeSec,
	}).Info("Screenshot analysis completed successfully")
}

func healthCheck(ocrVersion string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     "available",
			Version:    Version,
			Time:       time.Now().UTC().Format(time.RFC3339),
			OCRVersion: ocrVersion,
		})
	}
}

func help(c *gin.Context) {
	c.JSON(http.StatusOK, models.HelpResponse{Message: service.HelpMessage})
}

func metrics(m *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.JSON(http.StatusOK, observer.Metrics{Symbols: map[string]int64{}})
			return
		}
		c.JSON(http.StatusOK, m.GetMetrics())
	}
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"user_agent":         c.Request.UserAgent(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &appErr):
		if errors.As(appErr.Cause, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge
		}
		return appErr.StatusCode
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "request processing failed"
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: errorMessage(err),
	})
}
