package filehandler

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultThumbnailMaxDimension is the maximum dimension (width or height) for thumbnails.
const DefaultThumbnailMaxDimension = 512

// Downscale resizes img so neither side exceeds maxDimension, preserving the
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	w, h := calculateThumbnailDimensions(bounds.Dx(), bounds.Dy(), maxDimension)
	if w == bounds.Dx() && h == bounds.Dy() {
		return img
	}

	resized := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)
	return resized
}

// GenerateThumbnail produces a JPEG preview of img for the run gallery.
// Returns the thumbnail bytes and MIME type.
func GenerateThumbnail(img image.Image, maxDimension int) ([]byte, string, error) {
	small := Downscale(img, maxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: 80}); err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	log.Debug().
		Int("orig_width", img.Bounds().Dx()).
		Int("orig_height", img.Bounds().Dy()).
		Int("new_width", small.Bounds().Dx()).
		Int("new_height", small.Bounds().Dy()).
		Int("output_size", buf.Len()).
		Msg("Thumbnail generated")

	return buf.Bytes(), "image/jpeg", nil
}

// calculateThumbnailDimensions calculates new dimensions maintaining aspect ratio.
func calculateThumbnailDimensions(width, height, maxDimension int) (int, int) {
	if maxDimension <= 0 || (width <= maxDimension && height <= maxDimension) {
		return width, height
	}

	if width > height {
		newWidth := maxDimension
		newHeight := max(1, int(float64(height)*float64(maxDimension)/float64(width)))
		return newWidth, newHeight
	}

	newHeight := maxDimension
	newWidth := max(1, int(float64(width)*float64(maxDimension)/float64(height)))
	return newWidth, newHeight
}
