package service

import (
	"context"
	"errors"

	apperrors "github.com/anime-shed/gridbot-inspector-go/internal/errors"
	"github.com/anime-shed/gridbot-inspector-go/internal/normalizer"
	"github.com/anime-shed/gridbot-inspector-go/internal/recognition"
	"github.com/anime-shed/gridbot-inspector-go/internal/storage"
)

// classifyAnalysisError maps pipeline sentinels to the AppError taxonomy.
func classifyAnalysisError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, normalizer.ErrInvalidImage):
		return apperrors.NewInvalidImageError("image could not be decoded", err)
	case errors.Is(err, recognition.ErrRecognitionUnavailable):
		return apperrors.NewRecognitionUnavailableError("text recognition is unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("analysis timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("analysis cancelled", err)
	default:
		return apperrors.NewInternalError("analysis failed", err)
	}
}

func classifyFetchError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFoundError("screenshot not found", err)
	case errors.Is(err, storage.ErrImageTooLarge):
		return apperrors.NewValidationError("screenshot exceeds the size limit", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("screenshot fetch timeout", err)
	default:
		return apperrors.NewNetworkError("failed to fetch screenshot", err)
	}
}
