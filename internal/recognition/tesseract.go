package recognition

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractRecognizer reads a whole dashboard as one uniform block of text.
// Each call owns its own client, so concurrent calls do not share engine state.
type TesseractRecognizer struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// NewTesseractRecognizer keeps cfg for every later call. The engine mode is
// left at Tesseract's default, which combines legacy and LSTM when both are
// installed.
func NewTesseractRecognizer(cfg Config) *TesseractRecognizer {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &TesseractRecognizer{cfg: cfg, clientFactory: gosseract.NewClient}
}

func (r *TesseractRecognizer) Name() string { return "tesseract" }

// Language reports the configured language tag.
func (r *TesseractRecognizer) Language() string { return r.cfg.Language }

// Version reports the linked Tesseract version.
func (r *TesseractRecognizer) Version() string { return gosseract.Version() }

// Recognize blocks until the engine returns. ctx is only checked before the
// call starts; the engine itself cannot be interrupted.
func (r *TesseractRecognizer) Recognize(ctx context.Context, img *image.Gray) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode normalized image: %w", err)
	}

	client := r.clientFactory()
	defer client.Close()

	if r.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("%w: set tessdata prefix: %v", ErrRecognitionUnavailable, err)
		}
	}
	if err := client.SetLanguage(r.cfg.Language); err != nil {
		return "", fmt.Errorf("%w: set language %q: %v", ErrRecognitionUnavailable, r.cfg.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("%w: set page segmentation: %v", ErrRecognitionUnavailable, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognitionUnavailable, err)
	}
	return text, nil
}
