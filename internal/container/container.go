package container

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anime-shed/gridbot-inspector-go/internal/advisory"
	"github.com/anime-shed/gridbot-inspector-go/internal/analyzer"
	"github.com/anime-shed/gridbot-inspector-go/internal/config"
	"github.com/anime-shed/gridbot-inspector-go/internal/extractor"
	"github.com/anime-shed/gridbot-inspector-go/internal/factory"
	"github.com/anime-shed/gridbot-inspector-go/internal/logger"
	"github.com/anime-shed/gridbot-inspector-go/internal/observer"
	"github.com/anime-shed/gridbot-inspector-go/internal/recognition"
	"github.com/anime-shed/gridbot-inspector-go/internal/service"
	"github.com/anime-shed/gridbot-inspector-go/internal/storage"
	"github.com/anime-shed/gridbot-inspector-go/internal/transport"
	"github.com/anime-shed/gridbot-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config      *config.Config
	pool        *analyzer.WorkerPool
	metrics     *observer.MetricsObserver
	analysisSvc service.GridAnalysisService
	handler     http.Handler
}

// NewContainer builds the dependency graph from cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	httpFetcher, err := components.StorageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create http storage: %w", err)
	}

	var blobFetcher storage.ImageFetcher
	blobFetcher, err = components.StorageFactory.CreateStorage(factory.AzureStorage)
	switch {
	case errors.Is(err, factory.ErrStorageNotConfigured):
		logger.Logger.Info("Azure storage not configured, blob sources disabled")
		blobFetcher = nil
	case err != nil:
		return nil, fmt.Errorf("failed to create azure storage: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	pool := analyzer.NewWorkerPool(cfg.MaxWorkers)
	pool.Start()

	recognizer := components.PipelineFactory.CreateRecognizer()
	analysisSvc, err := service.NewGridAnalysisService(service.Dependencies{
		Normalizer: components.PipelineFactory.CreateNormalizer(),
		Recognizer: recognizer,
		Extractor:  extractor.NewDefault(),
		Advisor: advisory.New(advisory.Thresholds{
			HighLeverage: cfg.HighLeverage,
			MidLeverage:  cfg.MidLeverage,
		}),
		HTTPFetcher:  httpFetcher,
		BlobFetcher:  blobFetcher,
		URLValidator: validation.NewURLValidator(),
		Pool:         pool,
		Events:       events,
		MaxBatchSize: cfg.MaxBatchSize,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	handler := transport.NewHandler(transport.Options{
		Service:    analysisSvc,
		Metrics:    metrics,
		OCRVersion: ocrVersion(recognizer),
		Config:     cfg,
	})

	return &Container{
		config:      cfg,
		pool:        pool,
		metrics:     metrics,
		analysisSvc: analysisSvc,
		handler:     handler,
	}, nil
}

func ocrVersion(r recognition.Recognizer) string {
	if v, ok := r.(interface{ Version() string }); ok {
		return v.Version()
	}
	return "unknown"
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops the batch worker pool
func (c *Container) Close() {
	c.pool.Close()
}
