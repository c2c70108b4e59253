package validation

import (
	"fmt"
	"image"
	"image/draw"

	"gonum.org/v1/gonum/stat"
)

// QualityThresholds defines configurable thresholds for screenshot checks
type QualityThresholds struct {
	// Resolution thresholds, in source pixels
	MinWidth  int
	MinHeight int

	// Sharpness threshold on the Laplacian response
	MinLaplacianVariance float64

	// Contrast threshold on the grayscale standard deviation (0-255 scale)
	MinContrast float64
}

// DefaultQualityThresholds returns thresholds that flag screenshots Tesseract
// usually misreads. Dark themes are not penalized.
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		MinWidth:             400,
		MinHeight:            300,
		MinLaplacianVariance: 100.0,
		MinContrast:          10.0,
	}
}

// QualityValidator handles screenshot quality validation logic
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// ScreenshotMetrics are measured on the decoded source, before normalization
type ScreenshotMetrics struct {
	Width        int
	Height       int
	LaplacianVar float64
	Brightness   float64
	Contrast     float64
}

// MeasureScreenshot computes the metrics ValidateScreenshot needs
func MeasureScreenshot(img image.Image) ScreenshotMetrics {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	pixels := make([]float64, len(gray.Pix))
	for i, v := range gray.Pix {
		pixels[i] = float64(v)
	}

	m := ScreenshotMetrics{
		Width:        b.Dx(),
		Height:       b.Dy(),
		LaplacianVar: laplacianVariance(gray),
	}
	if len(pixels) > 1 {
		m.Brightness, m.Contrast = stat.MeanStdDev(pixels, nil)
	}
	return m
}

// laplacianVariance uses the 4-neighbour kernel [0 1 0; 1 -4 1; 0 1 0].
func laplacianVariance(gray *image.Gray) float64 {
	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	// a sample variance needs at least two responses
	if width < 3 || height < 3 || (width-2)*(height-2) < 2 {
		return 0
	}

	data := make([]float64, 0, (width-2)*(height-2))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	return stat.Variance(data, nil)
}

// ValidateScreenshot reports issues that explain weak recognition. None of
// them blocks analysis.
func (qv *QualityValidator) ValidateScreenshot(m ScreenshotMetrics) []QualityIssue {
	var issues []QualityIssue

	if m.Width < qv.thresholds.MinWidth || m.Height < qv.thresholds.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        "low_resolution",
			Message:     fmt.Sprintf("Screenshot is small (%dx%d). Send it at full resolution or zoom in on the Status and Parameters areas.", m.Width, m.Height),
			Severity:    "error",
			ActualValue: float64(m.Width * m.Height),
			Threshold:   float64(qv.thresholds.MinWidth * qv.thresholds.MinHeight),
		})
	}

	// A flat image has no edges at all; report that as contrast, not blur
	if m.Contrast < qv.thresholds.MinContrast {
		issues = append(issues, QualityIssue{
			Type:        "low_contrast",
			Message:     "Screenshot has very little contrast. Make sure the dashboard text is visible.",
			Severity:    "error",
			ActualValue: m.Contrast,
			Threshold:   qv.thresholds.MinContrast,
		})
	} else if m.LaplacianVar < qv.thresholds.MinLaplacianVariance {
		issues = append(issues, QualityIssue{
			Type:        "blurriness",
			Message:     "Screenshot looks blurry. Avoid photos of the screen and re-compressed images.",
			Severity:    "warning",
			ActualValue: m.LaplacianVar,
			Threshold:   qv.thresholds.MinLaplacianVariance,
		})
	}

	return issues
}

// ConvertIssuesToMessages converts quality issues to plain messages
func (qv *QualityValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
