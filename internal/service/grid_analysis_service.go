package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/gridbot-inspector-go/internal/advisory"
	"github.com/anime-shed/gridbot-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/gridbot-inspector-go/internal/errors"
	"github.com/anime-shed/gridbot-inspector-go/internal/extractor"
	"github.com/anime-shed/gridbot-inspector-go/internal/logger"
	"github.com/anime-shed/gridbot-inspector-go/internal/normalizer"
	"github.com/anime-shed/gridbot-inspector-go/internal/observer"
	"github.com/anime-shed/gridbot-inspector-go/internal/recognition"
	"github.com/anime-shed/gridbot-inspector-go/internal/storage"
	"github.com/anime-shed/gridbot-inspector-go/pkg/models"
	"github.com/anime-shed/gridbot-inspector-go/pkg/validation"
)

const (
	StatusAnalyzed = "analyzed"

	SourceUpload = "upload"
	SourceURL    = "url"
	SourceBlob   = "blob"

	timestampFormat = "2006-01-02T15:04:05Z07:00"
	textLogLimit    = 200
)

// GridAnalysisService turns grid bot screenshots into analysis reports
type GridAnalysisService interface {
	// AnalyzeImage runs the full pipeline on encoded image bytes
	AnalyzeImage(ctx context.Context, data []byte, expectedText string) (*models.AnalysisResponse, error)

	// AnalyzeRemote fetches the screenshot from a URL or blob first
	AnalyzeRemote(ctx context.Context, req models.RemoteAnalysisRequest) (*models.AnalysisResponse, error)

	// AnalyzeBatch analyzes items in parallel; failures are reported per item
	AnalyzeBatch(ctx context.Context, items []models.BatchItem) (*models.BatchAnalysisResponse, error)
}

// Dependencies wires the pipeline stages into the service. BlobFetcher may
// be nil when Azure is not configured.
type Dependencies struct {
	Normalizer   *normalizer.Normalizer
	Recognizer   recognition.Recognizer
	Extractor    *extractor.Extractor
	Advisor      *advisory.Engine
	HTTPFetcher  storage.ImageFetcher
	BlobFetcher  storage.ImageFetcher
	URLValidator *validation.URLValidator
	Quality      *validation.QualityValidator
	Pool         *analyzer.WorkerPool
	Events       observer.Subject
	MaxBatchSize int
}

type gridAnalysisService struct {
	deps Dependencies
}

// NewGridAnalysisService validates deps and fills optional stages with defaults
func NewGridAnalysisService(deps Dependencies) (GridAnalysisService, error) {
	if deps.Recognizer == nil {
		return nil, errors.New("recognizer is required")
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalizer.New(normalizer.DefaultOptions())
	}
	if deps.Extractor == nil {
		deps.Extractor = extractor.NewDefault()
	}
	if deps.Advisor == nil {
		deps.Advisor = advisory.New(advisory.DefaultThresholds())
	}
	if deps.URLValidator == nil {
		deps.URLValidator = validation.NewURLValidator()
	}
	if deps.Quality == nil {
		deps.Quality = validation.NewQualityValidator()
	}
	if deps.Events == nil {
		deps.Events = observer.NewEventPublisher()
	}
	if deps.MaxBatchSize <= 0 {
		deps.MaxBatchSize = 10
	}
	return &gridAnalysisService{deps: deps}, nil
}

func (s *gridAnalysisService) AnalyzeImage(ctx context.Context, data []byte, expectedText string) (*models.AnalysisResponse, error) {
	return s.analyze(ctx, SourceUpload, data, expectedText)
}

func (s *gridAnalysisService) analyze(ctx context.Context, source string, data []byte, expectedText string) (*models.AnalysisResponse, error) {
	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, Source: source})

	resp, err := s.run(ctx, data, expectedText)
	elapsed := time.Since(start)
	if err != nil {
		err = classifyAnalysisError(err)
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			Source:         source,
			ProcessingTime: elapsed,
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	resp.ProcessingTimeSec = elapsed.Seconds()
	resp.Timestamp = start.UTC().Format(timestampFormat)

	if len(resp.Guidance) > 0 {
		s.publish(ctx, observer.AnalysisEvent{EventType: observer.RecognitionWeak, Source: source, Success: true})
	}
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Source:         source,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			"symbol":      resp.Symbol,
			"field_count": len(resp.Fields) - 1,
		},
	})
	return resp, nil
}

func (s *gridAnalysisService) run(ctx context.Context, data []byte, expectedText string) (*models.AnalysisResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", normalizer.ErrInvalidImage)
	}
	img, err := s.deps.Normalizer.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	issues := s.deps.Quality.ValidateScreenshot(validation.MeasureScreenshot(img))
	warnings := s.deps.Quality.ConvertIssuesToMessages(issues)

	norm, err := s.deps.Normalizer.NormalizeWithStats(img)
	if err != nil {
		return nil, err
	}

	text, err := s.deps.Recognizer.Recognize(ctx, norm.Image)
	if err != nil {
		return nil, err
	}

	rec := s.deps.Extractor.Extract(text)
	report := s.deps.Advisor.BuildReport(rec)
	guidance := guidanceFor(rec, warnings)

	logger.WithFields(logrus.Fields{
		"recognizer": s.deps.Recognizer.Name(),
		"inverted":   norm.Inverted,
		"fields":     rec.Len() - 1,
		"warnings":   len(warnings),
		"text":       logger.Snippet(rec.Raw(), textLogLimit),
	}).Debug("Recognized screenshot text")

	symbol, _ := rec.StringValue(extractor.FieldSymbol)
	bounds := norm.Image.Bounds()

	resp := &models.AnalysisResponse{
		Status:          StatusAnalyzed,
		Symbol:          symbol,
		Fields:          rec.Map(),
		Projection:      projectionOf(rec),
		Report:          report,
		Guidance:        guidance,
		QualityWarnings: warnings,
		Message:         renderMessage(report, guidance),
		RecognizedText:  rec.Raw(),
		Preprocessing: &models.PreprocessingInfo{
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
			Inverted: norm.Inverted,
		},
		OCRAccuracy: measureAccuracy(expectedText, rec.Raw()),
	}
	return resp, nil
}

func projectionOf(rec extractor.Record) *models.Projection {
	p, missing := advisory.Project(rec)
	if len(missing) > 0 {
		return nil
	}
	return &models.Projection{
		ActiveDays:     p.ActiveDays,
		DailyUSDT:      p.Daily,
		WeeklyUSDT:     p.Weekly,
		MonthlyUSDT:    p.Monthly,
		DailyReturnPct: p.DailyReturnPct,
	}
}

func (s *gridAnalysisService) AnalyzeRemote(ctx context.Context, req models.RemoteAnalysisRequest) (*models.AnalysisResponse, error) {
	source, location, fetcher, err := s.resolveSource(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := fetcher.Fetch(ctx, location)
	if err != nil {
		err = classifyFetchError(err)
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         source,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		Source:         source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": len(data)},
	})

	return s.analyze(ctx, source, data, req.ExpectedText)
}

func (s *gridAnalysisService) resolveSource(req models.RemoteAnalysisRequest) (string, string, storage.ImageFetcher, error) {
	switch {
	case req.URL != "" && req.BlobURL != "":
		return "", "", nil, apperrors.NewValidationError("provide either url or blob_url, not both", nil)
	case req.URL != "":
		if err := s.deps.URLValidator.ValidateImageURL(req.URL); err != nil {
			return "", "", nil, err
		}
		if s.deps.HTTPFetcher == nil {
			return "", "", nil, apperrors.NewInternalError("url source is not configured", nil)
		}
		return SourceURL, req.URL, s.deps.HTTPFetcher, nil
	case req.BlobURL != "":
		if err := s.deps.URLValidator.ValidateBlobURL(req.BlobURL); err != nil {
			return "", "", nil, err
		}
		if s.deps.BlobFetcher == nil {
			return "", "", nil, apperrors.NewValidationError("blob source is not configured", nil)
		}
		return SourceBlob, req.BlobURL, s.deps.BlobFetcher, nil
	default:
		return "", "", nil, apperrors.NewValidationError("url or blob_url is required", nil)
	}
}

func (s *gridAnalysisService) AnalyzeBatch(ctx context.Context, items []models.BatchItem) (*models.BatchAnalysisResponse, error) {
	if len(items) == 0 {
		return nil, apperrors.NewValidationError("at least one image is required", nil)
	}
	if len(items) > s.deps.MaxBatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch holds %d images, limit is %d", len(items), s.deps.MaxBatchSize), nil)
	}

	start := time.Now()
	results := make([]models.BatchItemResult, len(items))
	analyzeItem := func(i int) {
		results[i] = models.BatchItemResult{Index: i, Name: items[i].Name}
		resp, err := s.analyze(ctx, SourceUpload, items[i].Data, "")
		if err != nil {
			results[i].Error = &models.ErrorResponse{
				Error:   http.StatusText(apperrors.GetStatusCode(err)),
				Message: err.Error(),
			}
			return
		}
		results[i].Result = resp
	}

	if s.deps.Pool != nil {
		if err := s.deps.Pool.RunAll(len(items), analyzeItem); err != nil {
			return nil, apperrors.NewInternalError("batch worker pool unavailable", err)
		}
	} else {
		for i := range items {
			analyzeItem(i)
		}
	}

	out := &models.BatchAnalysisResponse{
		Total:             len(items),
		Items:             results,
		ProcessingTimeSec: time.Since(start).Seconds(),
		Timestamp:         start.UTC().Format(timestampFormat),
	}
	for _, r := range results {
		if r.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	return out, nil
}

func (s *gridAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	s.deps.Events.NotifyObservers(ctx, event)
}
