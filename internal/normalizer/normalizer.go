// Package normalizer turns dashboard screenshots into binarized bitmaps that
// Tesseract reads reliably, including dark-theme captures.
package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
)

// UpscaleFactor is applied on both axes; output is always exactly this many
// times the source dimensions.
const UpscaleFactor = 2

// ErrInvalidImage is returned when the input cannot be decoded or is empty.
var ErrInvalidImage = errors.New("invalid image")

// gaussian3x3 is normalized by imaging (sum 16).
var gaussian3x3 = [9]float64{
	1, 2, 1,
	2, 4, 2,
	1, 2, 1,
}

// Options holds the tunable binarization constants.
type Options struct {
	// Window is the side of the local neighbourhood used by the adaptive
	// threshold, in pixels of the upscaled image. Must be odd.
	Window int
	// Offset is subtracted from the local mean before comparing.
	Offset int
	// PolarityMidpoint is the mean value under which the binarized image is
	// treated as light-on-dark and inverted.
	PolarityMidpoint float64
}

// DefaultOptions returns the constants tuned on grid bot screenshots.
func DefaultOptions() Options {
	return Options{
		Window:           31,
		Offset:           10,
		PolarityMidpoint: 127,
	}
}

// Result carries the normalized bitmap plus what the polarity step observed.
type Result struct {
	Image      *image.Gray
	Inverted   bool
	MeanBefore float64
	MeanAfter  float64
}

// Normalizer is stateless between calls and safe for concurrent use.
type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	if opts.Window < 3 {
		opts.Window = 3
	}
	if opts.Window%2 == 0 {
		opts.Window++
	}
	if opts.PolarityMidpoint <= 0 {
		opts.PolarityMidpoint = DefaultOptions().PolarityMidpoint
	}
	return &Normalizer{opts: opts}
}

// Decode reads PNG, JPEG, GIF, BMP or TIFF bytes, honouring EXIF orientation.
func (n *Normalizer) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// NormalizeBytes decodes data and normalizes it.
func (n *Normalizer) NormalizeBytes(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	img, err := n.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return n.NormalizeWithStats(img)
}

// Normalize returns the binarized image only.
func (n *Normalizer) Normalize(img image.Image) (*image.Gray, error) {
	res, err := n.NormalizeWithStats(img)
	if err != nil {
		return nil, err
	}
	return res.Image, nil
}

// NormalizeWithStats runs upscale, luminance, equalization, smoothing,
// adaptive binarization and polarity correction, in that order.
func (n *Normalizer) NormalizeWithStats(img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}

	w, h := b.Dx()*UpscaleFactor, b.Dy()*UpscaleFactor
	upscaled := imaging.Resize(img, w, h, imaging.CatmullRom)

	gray := toGray(upscaled)
	equalizeHistogram(gray)
	gray = toGray(imaging.Convolve3x3(gray, gaussian3x3, &imaging.ConvolveOptions{Normalize: true}))

	bin := adaptiveThreshold(gray, n.opts.Window, n.opts.Offset)
	before := meanValue(bin)
	inverted := correctPolarity(bin, n.opts.PolarityMidpoint)

	res := &Result{
		Image:      bin,
		Inverted:   inverted,
		MeanBefore: before,
		MeanAfter:  before,
	}
	if inverted {
		res.MeanAfter = meanValue(bin)
	}
	return res, nil
}

// toGray copies img into a zero-origin luminance buffer.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
