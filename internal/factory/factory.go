package factory

import (
	"errors"
	"fmt"

	"github.com/anime-shed/gridbot-inspector-go/internal/config"
	"github.com/anime-shed/gridbot-inspector-go/internal/normalizer"
	"github.com/anime-shed/gridbot-inspector-go/internal/recognition"
	"github.com/anime-shed/gridbot-inspector-go/internal/storage"
)

// ErrStorageNotConfigured is returned for a backend whose credentials are unset.
var ErrStorageNotConfigured = errors.New("storage backend not configured")

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for screenshots referenced by an http(s) URL
	HTTPStorage StorageType = "http"
	// AzureStorage for screenshots stored as Azure blobs
	AzureStorage StorageType = "azure"
)

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("%s: %w", storageType, ErrStorageNotConfigured)
		}
		return storage.NewAzureStorage(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.MaxRequestBodySize)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// PipelineFactory builds the configured image pipeline stages
type PipelineFactory interface {
	CreateNormalizer() *normalizer.Normalizer
	CreateRecognizer() recognition.Recognizer
}

type pipelineFactory struct {
	cfg *config.Config
}

// NewPipelineFactory creates a new pipeline factory
func NewPipelineFactory(cfg *config.Config) PipelineFactory {
	return &pipelineFactory{cfg: cfg}
}

func (f *pipelineFactory) CreateNormalizer() *normalizer.Normalizer {
	return normalizer.New(normalizer.Options{
		Window:           f.cfg.ThresholdWindow,
		Offset:           f.cfg.ThresholdOffset,
		PolarityMidpoint: f.cfg.PolarityMidpoint,
	})
}

func (f *pipelineFactory) CreateRecognizer() recognition.Recognizer {
	return recognition.NewTesseractRecognizer(recognition.Config{
		Language:       f.cfg.OCRLanguage,
		TessdataPrefix: f.cfg.TessdataPrefix,
	})
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory  StorageFactory
	PipelineFactory PipelineFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory:  NewStorageFactory(cfg),
		PipelineFactory: NewPipelineFactory(cfg),
	}
}
