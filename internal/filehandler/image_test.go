package filehandler

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSaveAndLoadImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	src := solidImage(4, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	path, err := SaveImage(src, dir, "out.png")
	if err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	if path != filepath.Join(dir, "out.png") {
		t.Errorf("unexpected path %q", path)
	}

	got, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 3 {
		t.Errorf("unexpected bounds %v", got.Bounds())
	}
	r, g, b, a := got.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 || a>>8 != 255 {
		t.Errorf("unexpected pixel (%d,%d,%d,%d)", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadImage(filepath.Join(dir, "notes.txt")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := LoadImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(bad); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestToNRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 8))
	src.Set(5, 5, color.RGBA{R: 255, A: 255})

	out := ToNRGBA(src)
	if out.Bounds() != image.Rect(0, 0, 2, 3) {
		t.Errorf("expected origin-based bounds, got %v", out.Bounds())
	}
	if c := out.NRGBAAt(0, 0); c.R != 255 || c.A != 255 {
		t.Errorf("unexpected pixel %v", c)
	}

	same := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	if ToNRGBA(same) != same {
		t.Error("expected NRGBA input to be returned unchanged")
	}
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		ext  string
		want bool
	}{
		{".png", true},
		{".PNG", true},
		{".jpeg", true},
		{".webp", true},
		{".heic", false},
		{".mp4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsImage(tt.ext); got != tt.want {
			t.Errorf("IsImage(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}
	if mime, err := GetMIMEType(".JPG"); err != nil || mime != "image/jpeg" {
		t.Errorf("GetMIMEType(.JPG) = %q, %v", mime, err)
	}
	if _, err := GetMIMEType(".bmp"); err == nil {
		t.Error("expected error for .bmp")
	}
}
