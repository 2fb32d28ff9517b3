package restyle

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/fpang/ui-restyler/internal/backend"
)

// fakeEditor records every request and paints each output a new shade so
// chaining can be observed. failAt is the 1-based call that fails (0 = never).
type fakeEditor struct {
	mu       sync.Mutex
	failAt   int
	requests []backend.EditRequest
	inputs   []image.Image
}

func (f *fakeEditor) Name() string { return "fake" }

func (f *fakeEditor) ApplyEdit(ctx context.Context, img image.Image, req backend.EditRequest) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.inputs = append(f.inputs, img)
	if f.failAt > 0 && len(f.requests) == f.failAt {
		return nil, &backend.Error{Kind: backend.KindRequestFailed, Backend: "fake", Message: "boom", Err: errors.New("status 500")}
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	shade := uint8(len(f.requests) * 20)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, color.NRGBA{R: shade, G: shade, B: shade, A: 0xFF})
		}
	}
	return out, nil
}

func solidScreenshot(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF})
		}
	}
	return img
}
