package normalizer

import (
	"image"
	"testing"
)

func grayFrom(w, h int, values ...uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	copy(g.Pix, values)
	return g
}

func TestEqualizeHistogram(t *testing.T) {
	t.Run("single level untouched", func(t *testing.T) {
		g := grayFrom(2, 2, 90, 90, 90, 90)
		equalizeHistogram(g)
		for _, v := range g.Pix {
			if v != 90 {
				t.Fatalf("Expected 90, got %d", v)
			}
		}
	})

	t.Run("two levels stretched", func(t *testing.T) {
		g := grayFrom(2, 2, 100, 100, 110, 110)
		equalizeHistogram(g)
		expected := []uint8{0, 0, 255, 255}
		for i, v := range g.Pix {
			if v != expected[i] {
				t.Fatalf("pixel %d: expected %d, got %d", i, expected[i], v)
			}
		}
	})

	t.Run("ramp keeps order", func(t *testing.T) {
		g := grayFrom(4, 1, 10, 20, 30, 40)
		equalizeHistogram(g)
		expected := []uint8{0, 85, 170, 255}
		for i, v := range g.Pix {
			if v != expected[i] {
				t.Fatalf("pixel %d: expected %d, got %d", i, expected[i], v)
			}
		}
	})
}

func TestAdaptiveThreshold(t *testing.T) {
	t.Run("flat region is white", func(t *testing.T) {
		g := grayFrom(5, 5)
		for i := range g.Pix {
			g.Pix[i] = 40
		}
		out := adaptiveThreshold(g, 3, 10)
		for i, v := range out.Pix {
			if v != 255 {
				t.Fatalf("pixel %d: expected 255, got %d", i, v)
			}
		}
	})

	t.Run("dark stroke on light panel is black", func(t *testing.T) {
		g := grayFrom(5, 5)
		for i := range g.Pix {
			g.Pix[i] = 220
		}
		g.Pix[2*5+2] = 20
		out := adaptiveThreshold(g, 3, 10)
		if out.Pix[2*5+2] != 0 {
			t.Errorf("Expected stroke pixel to be black, got %d", out.Pix[2*5+2])
		}
		if out.Pix[0] != 255 {
			t.Errorf("Expected background pixel to be white, got %d", out.Pix[0])
		}
	})
}

func TestCorrectPolarity(t *testing.T) {
	t.Run("mostly black is inverted", func(t *testing.T) {
		g := grayFrom(4, 1, 0, 0, 0, 255)
		if !correctPolarity(g, 127) {
			t.Fatal("Expected inversion")
		}
		if m := meanValue(g); m < 127 {
			t.Errorf("Expected mean >= 127 after inversion, got %f", m)
		}
	})

	t.Run("mostly white is untouched", func(t *testing.T) {
		g := grayFrom(4, 1, 255, 255, 255, 0)
		before := meanValue(g)
		if correctPolarity(g, 127) {
			t.Fatal("Expected no inversion")
		}
		if meanValue(g) != before {
			t.Error("Expected mean to be unchanged")
		}
	})

	t.Run("exactly at midpoint is untouched", func(t *testing.T) {
		g := grayFrom(1, 1, 127)
		if correctPolarity(g, 127) {
			t.Error("Expected no inversion at midpoint")
		}
	})
}
