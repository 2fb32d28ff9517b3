package filehandler

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestCalculateThumbnailDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, max    int
		wantW, wantH int
	}{
		{"within bounds", 100, 50, 512, 100, 50},
		{"landscape", 2000, 1000, 500, 500, 250},
		{"portrait", 1000, 2000, 500, 250, 500},
		{"square", 1024, 1024, 64, 64, 64},
		{"extreme aspect", 10000, 1, 64, 64, 1},
		{"no limit", 3000, 2000, 0, 3000, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := calculateThumbnailDimensions(tt.w, tt.h, tt.max)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDownscale(t *testing.T) {
	src := solidImage(200, 100, color.RGBA{G: 255, A: 255})

	out := Downscale(src, 64)
	if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 32 {
		t.Errorf("unexpected bounds %v", out.Bounds())
	}

	small := solidImage(10, 10, color.Black)
	if Downscale(small, 64) != image.Image(small) {
		t.Error("expected small image to be returned unchanged")
	}
}

func TestGenerateThumbnail(t *testing.T) {
	src := solidImage(800, 600, color.RGBA{B: 255, A: 255})

	data, mime, err := GenerateThumbnail(src, 100)
	if err != nil {
		t.Fatalf("GenerateThumbnail failed: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", mime)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 75 {
		t.Errorf("unexpected thumbnail bounds %v", img.Bounds())
	}
}
