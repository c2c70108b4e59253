package normalizer

import (
	"image"
	"math"
)

// equalizeHistogram spreads the cumulative distribution of gray levels over
// 0..255 in place. A single-level image is left as is.
func equalizeHistogram(gray *image.Gray) {
	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}
	total := len(gray.Pix)

	first := 0
	for first < 255 && hist[first] == 0 {
		first++
	}
	if hist[first] == total {
		return
	}

	var lut [256]uint8
	scale := 255.0 / float64(total-hist[first])
	sum := 0
	for v := first + 1; v < 256; v++ {
		sum += hist[v]
		lut[v] = clampByte(math.Round(float64(sum) * scale))
	}
	for i, v := range gray.Pix {
		gray.Pix[i] = lut[v]
	}
}

// adaptiveThreshold marks a pixel white when it is brighter than the mean of
// its window minus offset, black otherwise. Windows are clipped at the edges.
func adaptiveThreshold(gray *image.Gray, window, offset int) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	half := window / 2

	// integral image with a zero row and column in front
	stride := w + 1
	ints := make([]int64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(gray.Pix[y*gray.Stride+x])
			ints[(y+1)*stride+x+1] = ints[y*stride+x+1] + rowSum
		}
	}

	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			sum := ints[(y1+1)*stride+x1+1] - ints[y0*stride+x1+1] - ints[(y1+1)*stride+x0] + ints[y0*stride+x0]
			area := int64((x1 - x0 + 1) * (y1 - y0 + 1))
			th := float64(sum)/float64(area) - float64(offset)

			if float64(gray.Pix[y*gray.Stride+x]) > th {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// correctPolarity inverts bin when its mean is below midpoint and reports
// whether it did. Sparse bright text on a large dark panel can still trip it.
func correctPolarity(bin *image.Gray, midpoint float64) bool {
	if meanValue(bin) >= midpoint {
		return false
	}
	for i, v := range bin.Pix {
		bin.Pix[i] = 255 - v
	}
	return true
}

func meanValue(gray *image.Gray) float64 {
	if len(gray.Pix) == 0 {
		return 0
	}
	var sum int64
	for _, v := range gray.Pix {
		sum += int64(v)
	}
	return float64(sum) / float64(len(gray.Pix))
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
