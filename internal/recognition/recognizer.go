package recognition

import (
	"context"
	"errors"
	"image"
)

// ErrRecognitionUnavailable means the engine could not run (missing binary,
// missing language data). It is distinct from a run that found no text.
var ErrRecognitionUnavailable = errors.New("text recognition unavailable")

// Recognizer turns a normalized bitmap into raw text. A single attempt per
// image; implementations must not retry.
type Recognizer interface {
	Recognize(ctx context.Context, img *image.Gray) (string, error)
	Name() string
}

// Config is supplied by the integrating layer and passed through opaquely.
type Config struct {
	Language       string
	TessdataPrefix string
}
