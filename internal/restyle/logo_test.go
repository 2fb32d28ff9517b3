package restyle

import (
	"image"
	"image/color"
	"testing"
)

func TestDominantColorsOrdersByCoverage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			switch {
			case x < 7:
				img.Set(x, y, color.NRGBA{R: 0xC6, G: 0xFF, B: 0x00, A: 0xFF})
			case x < 9:
				img.Set(x, y, color.NRGBA{R: 0x00, G: 0xE5, B: 0xFF, A: 0xFF})
			default:
				img.Set(x, y, color.NRGBA{R: 0xFF, A: 0x10})
			}
		}
	}

	got := DominantColors(img)
	want := []string{"#C6FF00", "#00E5FF"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("color %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDominantColorsCapsAtFive(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 1))
	for x := 0; x < 8; x++ {
		img.Set(x, 0, color.NRGBA{R: uint8(x * 32), G: 0x80, B: 0x40, A: 0xFF})
	}
	if got := DominantColors(img); len(got) != maxLogoColors {
		t.Errorf("expected %d colors, got %v", maxLogoColors, got)
	}
}

func TestDominantColorsNilAndTransparent(t *testing.T) {
	if got := DominantColors(nil); got != nil {
		t.Errorf("expected nil for nil logo, got %v", got)
	}
	clear := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if got := DominantColors(clear); len(got) != 0 {
		t.Errorf("expected no colors for transparent logo, got %v", got)
	}
}
