package recognition

import (
	"context"
	"errors"
	"image"
	"os/exec"
	"strings"
	"testing"
)

func TestNewTesseractRecognizer_DefaultLanguage(t *testing.T) {
	r := NewTesseractRecognizer(Config{})
	if r.Language() != "eng" {
		t.Errorf("Expected eng, got %s", r.Language())
	}
	if r.Name() != "tesseract" {
		t.Errorf("Expected tesseract, got %s", r.Name())
	}
}

func TestTesseractRecognizer_CancelledContext(t *testing.T) {
	r := NewTesseractRecognizer(Config{Language: "eng"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Recognize(ctx, image.NewGray(image.Rect(0, 0, 4, 4)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func requireTesseract(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
}

func TestTesseractRecognizer_BlankImage(t *testing.T) {
	requireTesseract(t)

	img := image.NewGray(image.Rect(0, 0, 120, 60))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	text, err := NewTesseractRecognizer(Config{Language: "eng"}).Recognize(context.Background(), img)
	if err != nil {
		t.Fatalf("Expected blank image to recognize without error, got %v", err)
	}
	if strings.TrimSpace(text) != "" {
		t.Errorf("Expected no text, got %q", text)
	}
}

func TestTesseractRecognizer_UnknownLanguage(t *testing.T) {
	requireTesseract(t)

	img := image.NewGray(image.Rect(0, 0, 10, 10))
	_, err := NewTesseractRecognizer(Config{Language: "zzz_missing"}).Recognize(context.Background(), img)
	if !errors.Is(err, ErrRecognitionUnavailable) {
		t.Errorf("Expected ErrRecognitionUnavailable, got %v", err)
	}
}
